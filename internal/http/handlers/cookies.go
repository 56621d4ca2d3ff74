package handlers

import (
	"net/http"
	"time"

	"github.com/pribylovaa/videohub-accounts/internal/http/middleware"
	"github.com/pribylovaa/videohub-accounts/internal/models"
)

// Имена cookie с токенами.
const (
	AccessCookie  = middleware.AccessCookie
	RefreshCookie = "refreshToken"
)

// setTokenCookies выставляет оба токена. HttpOnly и Secure — всегда.
func (h *Handlers) setTokenCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, h.cookie(AccessCookie, pair.AccessToken, h.svc.AccessTTL()))
	http.SetCookie(w, h.cookie(RefreshCookie, pair.RefreshToken, h.svc.RefreshTTL()))
}

// clearTokenCookies истекает оба cookie.
func (h *Handlers) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (h *Handlers) cookie(name, value string, ttl time.Duration) *http.Cookie {
	path := h.cookies.Path
	if path == "" {
		path = "/"
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   h.cookies.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: h.cookies.SameSiteMode(),
	}
}
