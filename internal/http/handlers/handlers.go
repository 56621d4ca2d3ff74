package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/config"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/service"
)

// maxBodyBytes ограничивает размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

// Accounts — операции сервиса, используемые HTTP-слоем.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (models.Identity, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	Authenticate(ctx context.Context, accessToken string) (models.Identity, error)

	Profile(ctx context.Context, userID uuid.UUID) (models.Identity, error)
	UpdateAccount(ctx context.Context, userID uuid.UUID, in service.UpdateInput) (models.Identity, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	AddToWatchHistory(ctx context.Context, userID uuid.UUID, contentID string) ([]string, error)
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]string, error)

	AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, size int64) (*models.AvatarUpload, error)
	ConfirmAvatar(ctx context.Context, userID uuid.UUID, key string) (models.Identity, error)

	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc     Accounts
	cookies config.CookieConfig
}

func New(svc Accounts, cookies config.CookieConfig) *Handlers {
	return &Handlers{svc: svc, cookies: cookies}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %w", service.ErrInvalidInput)
	}
	return nil
}

// decodeOptional — как decodeStrict, но пустое тело не считается ошибкой.
func decodeOptional(r *http.Request, value any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", service.ErrInvalidInput)
	}
	return nil
}

type okResponse struct {
	OK bool `json:"ok"`
}
