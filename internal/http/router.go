package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/videohub-accounts/internal/config"
	"github.com/pribylovaa/videohub-accounts/internal/http/handlers"
	"github.com/pribylovaa/videohub-accounts/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
	Cookies  config.CookieConfig
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.Accounts, opts Options) http.Handler {
	root := chi.NewRouter()

	// Metrics внутри chi: ему нужен шаблон маршрута.
	root.Use(middleware.Metrics())
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, opts.Cookies)
	auth := middleware.RequireAuth(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, auth)
		root.Mount(opts.BasePath, sub)
	} else {
		registerRoutes(root, h, auth)
	}

	// Внешний -> внутренний.
	return middleware.Chain(root,
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, auth middleware.Middleware) {
	// public
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Get("/users/{id}", h.UserByID)

	// protected
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)

		r.Patch("/account", h.UpdateAccount)
		r.Delete("/account", h.DeleteAccount)
		r.Post("/account/avatar/presign", h.AvatarPresign)
		r.Post("/account/avatar/confirm", h.AvatarConfirm)

		r.Get("/history", h.WatchHistory)
		r.Put("/history/{content_id}", h.AddToWatchHistory)
	})
}
