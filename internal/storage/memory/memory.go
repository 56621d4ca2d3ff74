// memory — реализация storage.Storage в памяти процесса.
// Используется для локального запуска (db.driver=memory) и сценарных тестов.
// Все операции атомарны относительно одной блокировки.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
)

type Storage struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	byEmail  map[string]uuid.UUID
	byHandle map[string]uuid.UUID
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:    make(map[uuid.UUID]*models.User),
		byEmail:  make(map[string]uuid.UUID),
		byHandle: make(map[string]uuid.UUID),
	}
}

// Close ничего не освобождает и нужен для соответствия storage.Storage.
func (s *Storage) Close() {}

// SaveUser создаёт нового пользователя.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.memory.SaveUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.byHandle[user.Handle]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	u := cloneUser(user)
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	s.byHandle[u.Handle] = u.ID

	return nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.memory.UserByEmail"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneUser(s.users[id]), nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.memory.UserByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneUser(u), nil
}

// UpdateUser применяет частичное изменение учётной записи.
func (s *Storage) UpdateUser(ctx context.Context, id uuid.UUID, upd models.UserUpdate, now time.Time) (*models.User, error) {
	const op = "storage.memory.UpdateUser"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := s.byEmail[*upd.Email]; taken {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
	}
	if upd.Handle != nil && *upd.Handle != u.Handle {
		if _, taken := s.byHandle[*upd.Handle]; taken {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
	}

	if upd.Email != nil && *upd.Email != u.Email {
		delete(s.byEmail, u.Email)
		u.Email = *upd.Email
		s.byEmail[u.Email] = id
	}
	if upd.Handle != nil && *upd.Handle != u.Handle {
		delete(s.byHandle, u.Handle)
		u.Handle = *upd.Handle
		s.byHandle[u.Handle] = id
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = now

	return cloneUser(u), nil
}

// SetAvatarURL заменяет URL аватара.
func (s *Storage) SetAvatarURL(ctx context.Context, id uuid.UUID, url string, now time.Time) (*models.User, error) {
	const op = "storage.memory.SetAvatarURL"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u.AvatarURL = url
	u.UpdatedAt = now

	return cloneUser(u), nil
}

// DeleteUser удаляет учётную запись.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.memory.DeleteUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	delete(s.byEmail, u.Email)
	delete(s.byHandle, u.Handle)
	delete(s.users, id)

	return nil
}

// SetRefreshToken безусловно заменяет refresh-токен пользователя.
func (s *Storage) SetRefreshToken(ctx context.Context, id uuid.UUID, token *models.RefreshToken) error {
	const op = "storage.memory.SetRefreshToken"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u.RefreshToken = cloneToken(token)

	return nil
}

// SwapRefreshToken выполняет compare-and-set по хэшу текущего токена.
func (s *Storage) SwapRefreshToken(ctx context.Context, id uuid.UUID, oldHash string, next *models.RefreshToken) (bool, error) {
	const op = "storage.memory.SwapRefreshToken"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if u.RefreshToken == nil || u.RefreshToken.Hash != oldHash {
		return false, nil
	}

	u.RefreshToken = cloneToken(next)

	return true, nil
}

// DeleteExpiredTokens очищает refresh-токены, истёкшие к моменту now.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage.memory.DeleteExpiredTokens"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.RefreshToken != nil && u.RefreshToken.Expired(now) {
			u.RefreshToken = nil
		}
	}

	return nil
}

// AddToWatchHistory добавляет contentID в конец истории без дублей.
func (s *Storage) AddToWatchHistory(ctx context.Context, id uuid.UUID, contentID string) ([]string, error) {
	const op = "storage.memory.AddToWatchHistory"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	seen := false
	for _, c := range u.WatchHistory {
		if c == contentID {
			seen = true
			break
		}
	}
	if !seen {
		u.WatchHistory = append(u.WatchHistory, contentID)
	}

	return append([]string{}, u.WatchHistory...), nil
}

// WatchHistory возвращает историю просмотров.
func (s *Storage) WatchHistory(ctx context.Context, id uuid.UUID) ([]string, error) {
	const op = "storage.memory.WatchHistory"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return append([]string{}, u.WatchHistory...), nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.RefreshToken = cloneToken(u.RefreshToken)
	c.WatchHistory = append([]string(nil), u.WatchHistory...)
	return &c
}

func cloneToken(t *models.RefreshToken) *models.RefreshToken {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Проверка на соответствие интерфейсу Storage.
var _ storage.Storage = (*Storage)(nil)
