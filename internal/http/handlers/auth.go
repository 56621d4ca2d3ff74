package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/videohub-accounts/internal/errors"
	"github.com/pribylovaa/videohub-accounts/internal/http/middleware"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/service"
)

// Секрет принимается под ключом "secret"; "password" оставлен как синоним.
type registerRequest struct {
	Handle    string `json:"handle"`
	Email     string `json:"email"`
	Secret    string `json:"secret"`
	Password  string `json:"password,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Secret   string `json:"secret"`
	Password string `json:"password,omitempty"`
}

// refreshRequest принимает и "refresh_token", и "refreshToken".
type refreshRequest struct {
	RefreshToken      string `json:"refresh_token"`
	RefreshTokenCamel string `json:"refreshToken,omitempty"`
}

// pickSecret возвращает secret, а если он пуст, то password.
func pickSecret(secret, password string) string {
	if secret != "" {
		return secret
	}
	return password
}

// sessionResponse — тело ответа на login и refresh.
type sessionResponse struct {
	User             models.Identity `json:"user"`
	AccessToken      string          `json:"access_token"`
	RefreshToken     string          `json:"refresh_token"`
	AccessExpiresAt  time.Time       `json:"access_expires_at"`
	RefreshExpiresAt time.Time       `json:"refresh_expires_at"`
}

func sessionFrom(s *models.Session) sessionResponse {
	return sessionResponse{
		User:             s.Identity,
		AccessToken:      s.Tokens.AccessToken,
		RefreshToken:     s.Tokens.RefreshToken,
		AccessExpiresAt:  s.Tokens.AccessExpiresAt,
		RefreshExpiresAt: s.Tokens.RefreshExpiresAt,
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := h.svc.Register(r.Context(), service.RegisterInput{
		Handle:    in.Handle,
		Email:     in.Email,
		Password:  pickSecret(in.Secret, in.Password),
		AvatarURL: in.AvatarURL,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, id)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	sess, err := h.svc.Login(r.Context(), in.Email, pickSecret(in.Secret, in.Password))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, sess.Tokens)
	writeJSON(w, http.StatusOK, sessionFrom(sess))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())

	if err := h.svc.Logout(r.Context(), id.ID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Refresh берёт refresh-токен из cookie, иначе из тела {"refresh_token": "..."}
// (или {"refreshToken": "..."}).
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshCookie); err == nil {
		token = c.Value
	}

	if token == "" {
		var in refreshRequest
		if err := decodeOptional(r, &in); err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		token = in.RefreshToken
		if token == "" {
			token = in.RefreshTokenCamel
		}
	}

	sess, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, sess.Tokens)
	writeJSON(w, http.StatusOK, sessionFrom(sess))
}
