package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/videohub-accounts/internal/errors"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	logctx "github.com/pribylovaa/videohub-accounts/pkg/log"
)

// AccessCookie — имя cookie с access-токеном.
const AccessCookie = "accessToken"

// Authenticator проверяет access-токен и возвращает Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (models.Identity, error)
}

// RequireAuth пропускает запрос дальше только с действующим access-токеном.
// Токен берётся из cookie accessToken, иначе из Authorization: Bearer.
// Identity кладётся в контекст (см. IdentityFrom).
func RequireAuth(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := auth.Authenticate(r.Context(), AccessToken(r))
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			ctx = logctx.With(ctx, slog.String("user_id", id.ID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessToken извлекает access-токен из запроса; пустая строка, если его нет.
func AccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}

	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	return ""
}

// IdentityFrom возвращает Identity, положенную RequireAuth.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}
