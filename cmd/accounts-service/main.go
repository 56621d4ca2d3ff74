package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/videohub-accounts/internal/cache"
	"github.com/pribylovaa/videohub-accounts/internal/config"
	accountshttp "github.com/pribylovaa/videohub-accounts/internal/http"
	"github.com/pribylovaa/videohub-accounts/internal/service"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/pribylovaa/videohub-accounts/internal/storage/memory"
	"github.com/pribylovaa/videohub-accounts/internal/storage/minio"
	"github.com/pribylovaa/videohub-accounts/internal/storage/mongo"
	"github.com/pribylovaa/videohub-accounts/internal/storage/postgres"
	"github.com/pribylovaa/videohub-accounts/pkg/redact"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting accounts-service", "env", cfg.Env, "db_driver", cfg.DB.Driver)
	log.Debug("auth_config",
		slog.String("access_token_secret", redact.Secret()),
		slog.Duration("access_token_ttl", cfg.Auth.AccessTokenTTL),
		slog.String("refresh_token_secret", redact.Secret()),
		slog.Duration("refresh_token_ttl", cfg.Auth.RefreshTokenTTL),
		slog.String("issuer", cfg.Auth.Issuer),
	)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Хранилище учётных записей c таймаутом на подключение.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := openStorage(dbCtx, cfg.DB)
	dbCancel()
	if err != nil {
		log.Error("storage_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()
	log.Info("storage_connected", slog.String("driver", cfg.DB.Driver))

	opts := []service.Option{service.WithDefaultAvatar(cfg.Avatar.DefaultURL)}

	// Блокировка ротации: Redis между экземплярами, иначе локальная.
	if cfg.Redis.RedisURL != "" {
		redisCtx, redisCancel := context.WithTimeout(rootCtx, 5*time.Second)
		locker, err := cache.NewRedisLocker(redisCtx, cfg.Redis.RedisURL, cfg.Redis.Prefix, cfg.Redis.LockTTL)
		redisCancel()
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			str.Close()
			os.Exit(1)
		}
		defer func() { _ = locker.Close() }()

		opts = append(opts, service.WithLocker(locker))
		log.Info("redis_connected")
	} else {
		log.Info("rotation_lock_local")
	}

	// Аватары: только при сконфигурированном S3.
	if cfg.S3.Enabled() {
		s3Ctx, s3Cancel := context.WithTimeout(rootCtx, 10*time.Second)
		avatars, err := minio.New(s3Ctx, cfg.S3, cfg.Avatar)
		s3Cancel()
		if err != nil {
			log.Error("minio_connect_failed", slog.String("err", err.Error()))
			str.Close()
			os.Exit(1)
		}

		opts = append(opts, service.WithAvatars(avatars))
		log.Info("minio_connected")
	} else {
		log.Info("avatar_uploads_disabled")
	}

	svc, err := service.New(str, cfg.Auth, opts...)
	if err != nil {
		log.Error("service_init_failed", slog.String("err", err.Error()))
		str.Close()
		os.Exit(1)
	}
	log.Info("service_initialized")

	apiHandler := accountshttp.NewRouter(svc, accountshttp.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		BasePath: cfg.HTTP.BasePath,
		Cookies:  cfg.Cookies,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler)

	// Фоновая очистка просроченных refresh-токенов.
	startRefreshJanitor(rootCtx, svc, log, cfg.Auth.JanitorPeriod)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		str.Close()
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// openStorage подключает хранилище по драйверу из конфигурации.
func openStorage(ctx context.Context, db config.DBConfig) (storage.Storage, error) {
	switch db.Driver {
	case config.DriverPostgres:
		st, err := postgres.New(ctx, db.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMongo:
		st, err := mongo.New(ctx, db.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", db.Driver)
	}
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}

// startRefreshJanitor периодически очищает просроченные refresh-токены.
func startRefreshJanitor(ctx context.Context, svc *service.Service, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := svc.PurgeExpiredTokens(ctx); err != nil {
					log.Error("refresh_janitor_failed", slog.String("err", err.Error()))
				}
			}
		}
	}()
}
