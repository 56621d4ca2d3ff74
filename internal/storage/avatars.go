package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
)

var (
	// ErrAvatarNotFound — объект (ключ) отсутствует в бакете.
	ErrAvatarNotFound = errors.New("avatar not found")
	// ErrInvalidArgument — нарушены ограничения на аватар (тип/размер/ключ).
	ErrInvalidArgument = errors.New("invalid argument")
)

// Avatars — выдача presigned URL и подтверждение загрузки аватара.
type Avatars interface {
	// AvatarUploadURL генерирует presigned PUT с проверкой contentType и contentLength.
	AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*models.AvatarUpload, error)
	// CheckAvatarUpload проверяет загруженный объект и возвращает его публичный URL.
	CheckAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (string, error)
}
