// config предоставляет структуру конфигурации accounts-service и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища учётных записей.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// ErrInvalidConfig — конфигурация прочитана, но нарушает ограничения сервиса.
var ErrInvalidConfig = errors.New("invalid config")

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	Cookies  CookieConfig  `yaml:"cookies"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	S3       S3Config      `yaml:"s3"`
	Avatar   AvatarConfig  `yaml:"avatar"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host     string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH" env-default:""`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и проверки токенов.
// Секреты и сроки жизни обоих видов токенов обязательны.
type AuthConfig struct {
	AccessTokenSecret  string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-required:"true"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-required:"true"`
	Issuer             string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"accounts-service"`
	Audience           []string      `yaml:"audience" env:"TOKEN_AUDIENCE" env-separator:"," env-default:"videohub"`
	JanitorPeriod      time.Duration `yaml:"janitor_period" env:"REFRESH_JANITOR_PERIOD" env-default:"30m"`
}

// CookieConfig — атрибуты cookie с токенами. HttpOnly и Secure выставляются всегда.
type CookieConfig struct {
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN" env-default:""`
	Path     string `yaml:"path" env:"COOKIE_PATH" env-default:"/"`
	SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE" env-default:"lax"`
}

// SameSiteMode переводит строковое значение в http.SameSite.
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// DBConfig — выбор и подключение хранилища учётных записей.
type DBConfig struct {
	Driver      string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL"`
}

// RedisConfig — распределённая блокировка ротации. Пустой URL означает
// локальную блокировку в памяти процесса.
type RedisConfig struct {
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" env-default:"5s"`
	Prefix   string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"accounts:rotate:"`
}

// S3Config — объектное хранилище аватаров. Пустой Endpoint отключает загрузку аватаров.
type S3Config struct {
	Endpoint      string        `yaml:"endpoint" env:"S3_ENDPOINT"`
	RootUser      string        `yaml:"root_user" env:"S3_ROOT_USER"`
	RootPassword  string        `yaml:"root_password" env:"S3_ROOT_PASSWORD"`
	Bucket        string        `yaml:"bucket" env:"S3_BUCKET" env-default:"avatars"`
	PresignTTL    time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"10m"`
	PublicBaseURL string        `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// Enabled сообщает, сконфигурировано ли объектное хранилище.
func (s S3Config) Enabled() bool {
	return s.Endpoint != ""
}

// AvatarConfig — ограничения на аватары и аватар по умолчанию.
type AvatarConfig struct {
	DefaultURL          string   `yaml:"default_url" env:"AVATAR_DEFAULT_URL" env-default:"https://static.videohub.local/avatars/default.png"`
	MaxSizeBytes        int64    `yaml:"max_size_bytes" env:"AVATAR_MAX_SIZE_BYTES" env-default:"5242880"`
	AllowedContentTypes []string `yaml:"allowed_content_types" env:"AVATAR_ALLOWED_CONTENT_TYPES" env-separator:"," env-default:"image/jpeg,image/png,image/webp"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// Validate проверяет согласованность значений, которые cleanenv проверить не может.
func (c *Config) Validate() error {
	a := c.Auth

	if a.AccessTokenTTL <= 0 || a.RefreshTokenTTL <= 0 {
		return fmt.Errorf("%w: token ttl must be positive", ErrInvalidConfig)
	}

	if a.AccessTokenTTL >= a.RefreshTokenTTL {
		return fmt.Errorf("%w: access token ttl must be shorter than refresh token ttl", ErrInvalidConfig)
	}

	if a.AccessTokenSecret == a.RefreshTokenSecret {
		return fmt.Errorf("%w: access and refresh secrets must differ", ErrInvalidConfig)
	}

	switch c.DB.Driver {
	case DriverPostgres, DriverMongo:
		if c.DB.DatabaseURL == "" {
			return fmt.Errorf("%w: db_url is required for driver %q", ErrInvalidConfig, c.DB.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown db driver %q", ErrInvalidConfig, c.DB.Driver)
	}

	if c.S3.Enabled() && (c.S3.RootUser == "" || c.S3.RootPassword == "") {
		return fmt.Errorf("%w: s3 credentials are required when endpoint is set", ErrInvalidConfig)
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) error {
		if p == "" {
			return fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	switch {
	case path != "":
		if err := tryRead(path); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := tryRead(os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat("local.yaml"); err == nil {
			if err := tryRead("local.yaml"); err != nil {
				return nil, err
			}
			break
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
