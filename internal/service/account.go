package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/pribylovaa/videohub-accounts/pkg/log"
)

// UpdateInput — частичное изменение учётной записи; nil-поля не меняются.
type UpdateInput struct {
	Handle   *string
	Email    *string
	Password *string
}

// Profile возвращает публичное представление пользователя.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (models.Identity, error) {
	const op = "service.account.Profile"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return user.Identity(), nil
}

// UpdateAccount меняет handle, email и/или пароль.
// Смена пароля отзывает сохранённый refresh-токен.
func (s *Service) UpdateAccount(ctx context.Context, userID uuid.UUID, in UpdateInput) (models.Identity, error) {
	const op = "service.account.UpdateAccount"

	var upd models.UserUpdate

	if in.Handle != nil {
		h := strings.TrimSpace(*in.Handle)
		if h == "" {
			return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
		}
		upd.Handle = &h
	}

	if in.Email != nil {
		e, err := validateEmail(*in.Email)
		if err != nil {
			return models.Identity{}, fmt.Errorf("%s: %w", op, err)
		}
		upd.Email = &e
	}

	if in.Password != nil {
		if isBlank(*in.Password) {
			return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
		}
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return models.Identity{}, fmt.Errorf("%s: %w", op, err)
		}
		upd.PasswordHash = &hash
	}

	if upd.Handle == nil && upd.Email == nil && upd.PasswordHash == nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	user, err := s.storage.UpdateUser(ctx, userID, upd, s.now().UTC())
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if upd.PasswordHash != nil {
		if err := s.storage.SetRefreshToken(ctx, userID, nil); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return models.Identity{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	log.From(ctx).Info("account_updated",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.Bool("password_changed", upd.PasswordHash != nil),
	)

	return user.Identity(), nil
}

// DeleteAccount удаляет учётную запись вместе с сессией и историей.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	const op = "service.account.DeleteAccount"

	if err := s.storage.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	log.From(ctx).Info("account_deleted",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// AddToWatchHistory добавляет ссылку на контент в историю просмотров.
// Повторное добавление не меняет порядок.
func (s *Service) AddToWatchHistory(ctx context.Context, userID uuid.UUID, contentID string) ([]string, error) {
	const op = "service.account.AddToWatchHistory"

	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	items, err := s.storage.AddToWatchHistory(ctx, userID, contentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return items, nil
}

// WatchHistory возвращает историю просмотров в порядке добавления.
func (s *Service) WatchHistory(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const op = "service.account.WatchHistory"

	items, err := s.storage.WatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if items == nil {
		items = []string{}
	}

	return items, nil
}

// mapStorageErr переводит сентинелы хранилища в ошибки сервиса.
func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrConflict
	default:
		return err
	}
}
