// service содержит бизнес-логику accounts-service:
// регистрацию и вход, выпуск и ротацию пары токенов, проверку access-токена
// для защищённых операций и управление учётной записью.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для конкурентного
//     использования при потокобезопасном storage.Storage.
//   - Наружу отдаётся только models.Identity: хэш пароля и refresh-токен
//     не покидают пакет.
//   - Ошибки возвращаются сентинелами ниже и маппятся транспортом на HTTP-коды
//     (см. internal/errors).
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/videohub-accounts/internal/cache"
	"github.com/pribylovaa/videohub-accounts/internal/config"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/pribylovaa/videohub-accounts/internal/tokens"
)

var (
	// ErrInvalidInput — пустые обязательные поля или некорректный e-mail.
	// HTTP 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict — handle или e-mail уже заняты. HTTP 409.
	ErrConflict = errors.New("already exists")

	// ErrNotFound — учётная запись не найдена. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredential — пароль не совпадает. HTTP 401.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrUnauthorized — токен отсутствует, не проходит проверку или уже заменён.
	// Причина наружу не раскрывается. HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAvatarsDisabled — объектное хранилище аватаров не сконфигурировано. HTTP 501.
	ErrAvatarsDisabled = errors.New("avatar uploads disabled")
)

// Service описывает бизнес-логику accounts-service.
type Service struct {
	storage       storage.Storage
	access        *tokens.Codec
	refresh       *tokens.Codec
	locker        cache.Locker
	avatars       storage.Avatars // может быть nil, если S3 не сконфигурирован
	defaultAvatar string
	now           func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithLocker задаёт блокировку ротации (по умолчанию — локальная в памяти).
func WithLocker(l cache.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithAvatars подключает объектное хранилище аватаров.
func WithAvatars(a storage.Avatars) Option {
	return func(s *Service) { s.avatars = a }
}

// WithDefaultAvatar задаёт URL аватара, назначаемого при регистрации.
func WithDefaultAvatar(url string) Option {
	return func(s *Service) { s.defaultAvatar = url }
}

// WithClock подменяет источник времени (тесты).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New создаёт Service и кодеки обоих видов токенов.
func New(st storage.Storage, cfg config.AuthConfig, opts ...Option) (*Service, error) {
	const op = "service.New"

	s := &Service{
		storage: st,
		locker:  cache.NewLocalLocker(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	s.access, err = tokens.NewCodec(tokens.KindAccess, cfg.AccessTokenSecret, cfg.AccessTokenTTL,
		tokens.WithClock(s.now), tokens.WithIssuer(cfg.Issuer, cfg.Audience))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.refresh, err = tokens.NewCodec(tokens.KindRefresh, cfg.RefreshTokenSecret, cfg.RefreshTokenTTL,
		tokens.WithClock(s.now), tokens.WithIssuer(cfg.Issuer, cfg.Audience))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// AccessTTL возвращает срок жизни access-токена.
func (s *Service) AccessTTL() time.Duration { return s.access.TTL() }

// RefreshTTL возвращает срок жизни refresh-токена.
func (s *Service) RefreshTTL() time.Duration { return s.refresh.TTL() }

// AvatarsEnabled сообщает, подключено ли хранилище аватаров.
func (s *Service) AvatarsEnabled() bool { return s.avatars != nil }

// PurgeExpiredTokens очищает просроченные refresh-токены (фоновый janitor).
func (s *Service) PurgeExpiredTokens(ctx context.Context) error {
	const op = "service.PurgeExpiredTokens"

	if err := s.storage.DeleteExpiredTokens(ctx, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
