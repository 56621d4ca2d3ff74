// storage задаёт контракты хранилища учётных записей и аватаров.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (handle/email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над учётными записями.
type UserStorage interface {
	// SaveUser создаёт пользователя; ErrAlreadyExists при занятом handle или email.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по нормализованному email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdateUser применяет частичное изменение и возвращает обновлённую запись.
	UpdateUser(ctx context.Context, id uuid.UUID, upd models.UserUpdate, now time.Time) (*models.User, error)
	// SetAvatarURL заменяет URL аватара.
	SetAvatarURL(ctx context.Context, id uuid.UUID, url string, now time.Time) (*models.User, error)
	// DeleteUser удаляет учётную запись целиком.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// RefreshTokenStorage хранит единственный действующий refresh-токен пользователя.
type RefreshTokenStorage interface {
	// SetRefreshToken безусловно заменяет токен; nil очищает его.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *models.RefreshToken) error
	// SwapRefreshToken заменяет токен на next, только если текущий хэш равен oldHash.
	// Возвращает false, если токен уже сменился (гонка ротаций или logout).
	SwapRefreshToken(ctx context.Context, id uuid.UUID, oldHash string, next *models.RefreshToken) (bool, error)
	// DeleteExpiredTokens очищает просроченные токены.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// WatchHistoryStorage — история просмотров пользователя.
type WatchHistoryStorage interface {
	// AddToWatchHistory добавляет ссылку на контент в конец, если её там ещё нет.
	AddToWatchHistory(ctx context.Context, id uuid.UUID, contentID string) ([]string, error)
	// WatchHistory возвращает историю в порядке добавления.
	WatchHistory(ctx context.Context, id uuid.UUID) ([]string, error)
}

// Storage задаёт контракт хранилища учётных записей.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	WatchHistoryStorage
	Close()
}
