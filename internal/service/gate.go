package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/videohub-accounts/internal/metrics"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/pribylovaa/videohub-accounts/pkg/log"
	"github.com/pribylovaa/videohub-accounts/pkg/redact"
)

// Authenticate проверяет access-токен и возвращает текущую Identity пользователя.
// Любая неудача (токен, отсутствие пользователя, сбой хранилища) даёт ErrUnauthorized;
// сбои инфраструктуры только логируются. Ничего не пишет в хранилище.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (models.Identity, error) {
	const op = "service.gate.Authenticate"

	lg := log.From(ctx)

	if strings.TrimSpace(accessToken) == "" {
		metrics.Auth("authenticate", metrics.OutcomeRejected)
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	claims, err := s.access.Verify(accessToken)
	if err != nil {
		metrics.Auth("authenticate", metrics.OutcomeRejected)
		lg.Debug("access_token_rejected",
			slog.String("op", op),
			slog.String("token", redact.Token()),
			slog.String("err", err.Error()),
		)
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	user, err := s.storage.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.Auth("authenticate", metrics.OutcomeRejected)
			lg.Info("access_token_user_missing",
				slog.String("op", op),
				slog.String("user_id", claims.UserID.String()),
			)
		} else {
			metrics.Auth("authenticate", metrics.OutcomeError)
			lg.Error("access_token_lookup_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}

		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	metrics.Auth("authenticate", metrics.OutcomeSuccess)

	return user.Identity(), nil
}
