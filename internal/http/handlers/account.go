package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/videohub-accounts/internal/errors"
	"github.com/pribylovaa/videohub-accounts/internal/http/middleware"
	"github.com/pribylovaa/videohub-accounts/internal/service"
)

type updateAccountRequest struct {
	Handle   *string `json:"handle,omitempty"`
	Email    *string `json:"email,omitempty"`
	Secret   *string `json:"secret,omitempty"`
	Password *string `json:"password,omitempty"`
}

// secret отдаёт новый секрет: ключ "secret" приоритетнее синонима "password".
func (in updateAccountRequest) secret() *string {
	if in.Secret != nil {
		return in.Secret
	}
	return in.Password
}

type historyResponse struct {
	Items []string `json:"items"`
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, id)
}

func (h *Handlers) UserByID(w http.ResponseWriter, r *http.Request) {
	uid, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidInput)
		return
	}

	id, err := h.svc.Profile(r.Context(), uid)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, id)
}

func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.IdentityFrom(r.Context())

	var in updateAccountRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := h.svc.UpdateAccount(r.Context(), me.ID, service.UpdateInput{
		Handle:   in.Handle,
		Email:    in.Email,
		Password: in.secret(),
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, id)
}

func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.IdentityFrom(r.Context())

	if err := h.svc.DeleteAccount(r.Context(), me.ID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handlers) WatchHistory(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.IdentityFrom(r.Context())

	items, err := h.svc.WatchHistory(r.Context(), me.ID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Items: items})
}

func (h *Handlers) AddToWatchHistory(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.IdentityFrom(r.Context())

	items, err := h.svc.AddToWatchHistory(r.Context(), me.ID, chi.URLParam(r, "content_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Items: items})
}
