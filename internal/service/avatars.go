package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
)

// AvatarUploadURL выдаёт presigned PUT для загрузки аватара напрямую в S3.
func (s *Service) AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, size int64) (*models.AvatarUpload, error) {
	const op = "service.avatars.AvatarUploadURL"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAvatarsDisabled)
	}

	up, err := s.avatars.AvatarUploadURL(ctx, userID, strings.TrimSpace(contentType), size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapAvatarErr(err))
	}

	return up, nil
}

// ConfirmAvatar проверяет загруженный объект и сохраняет его URL в профиле.
func (s *Service) ConfirmAvatar(ctx context.Context, userID uuid.UUID, key string) (models.Identity, error) {
	const op = "service.avatars.ConfirmAvatar"

	if s.avatars == nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrAvatarsDisabled)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	url, err := s.avatars.CheckAvatarUpload(ctx, userID, key)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, mapAvatarErr(err))
	}

	user, err := s.storage.SetAvatarURL(ctx, userID, url, s.now().UTC())
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return user.Identity(), nil
}

func mapAvatarErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidArgument):
		return ErrInvalidInput
	case errors.Is(err, storage.ErrAvatarNotFound):
		return ErrNotFound
	default:
		return err
	}
}
