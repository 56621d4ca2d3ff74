package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/videohub-accounts/internal/errors"
	"github.com/pribylovaa/videohub-accounts/internal/http/middleware"
)

type avatarPresignRequest struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
}

type avatarPresignResponse struct {
	UploadURL       string            `json:"upload_url"`
	AvatarKey       string            `json:"avatar_key"`
	ExpiresSeconds  int64             `json:"expires_seconds"`
	RequiredHeaders map[string]string `json:"required_headers"`
}

type avatarConfirmRequest struct {
	AvatarKey string `json:"avatar_key"`
}

func (h *Handlers) AvatarPresign(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.IdentityFrom(r.Context())

	var in avatarPresignRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	up, err := h.svc.AvatarUploadURL(r.Context(), me.ID, in.ContentType, in.ContentLength)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, avatarPresignResponse{
		UploadURL:       up.UploadURL,
		AvatarKey:       up.AvatarKey,
		ExpiresSeconds:  int64(up.Expires.Seconds()),
		RequiredHeaders: up.RequiredHeader,
	})
}

func (h *Handlers) AvatarConfirm(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.IdentityFrom(r.Context())

	var in avatarConfirmRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := h.svc.ConfirmAvatar(r.Context(), me.ID, in.AvatarKey)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, id)
}
