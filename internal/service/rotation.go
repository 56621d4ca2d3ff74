package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/videohub-accounts/internal/cache"
	"github.com/pribylovaa/videohub-accounts/internal/metrics"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/pribylovaa/videohub-accounts/pkg/log"
)

// Refresh обменивает действующий refresh-токен на новую пару.
//
// Шаги:
//  1. проверка подписи и срока refresh-токена;
//  2. блокировка ротации по пользователю;
//  3. сравнение хэша предъявленного токена с сохранённым (constant-time);
//  4. выпуск новой пары и compare-and-set в хранилище.
//
// Заменённый токен отвергается даже до истечения срока: его хэш больше не совпадает.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	const op = "service.rotation.Refresh"

	lg := log.From(ctx)

	reject := func(reason string) (*models.Session, error) {
		metrics.Auth("refresh", metrics.OutcomeRejected)
		lg.Info("refresh_rejected",
			slog.String("op", op),
			slog.String("reason", reason),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if strings.TrimSpace(refreshToken) == "" {
		return reject("missing")
	}

	claims, err := s.refresh.Verify(refreshToken)
	if err != nil {
		return reject("invalid_token")
	}

	unlock, err := s.locker.Lock(ctx, claims.UserID.String())
	if err != nil {
		if errors.Is(err, cache.ErrLockBusy) {
			return reject("lock_busy")
		}

		metrics.Auth("refresh", metrics.OutcomeError)
		lg.Error("refresh_lock_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	user, err := s.storage.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return reject("user_missing")
		}

		metrics.Auth("refresh", metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	presented := hashToken(refreshToken)
	stored := user.RefreshToken

	if stored == nil {
		return reject("no_session")
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored.Hash)) != 1 {
		lg.Warn("refresh_reuse_detected",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return reject("superseded")
	}

	if stored.Expired(s.now().UTC()) {
		return reject("expired")
	}

	pair, next, err := s.issuePair(user)
	if err != nil {
		metrics.Auth("refresh", metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	swapped, err := s.storage.SwapRefreshToken(ctx, user.ID, presented, next)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return reject("user_missing")
		}

		metrics.Auth("refresh", metrics.OutcomeError)
		lg.Error("refresh_swap_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !swapped {
		return reject("race_lost")
	}

	metrics.Auth("refresh", metrics.OutcomeSuccess)
	lg.Info("refresh_rotated",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return &models.Session{Identity: user.Identity(), Tokens: pair}, nil
}
