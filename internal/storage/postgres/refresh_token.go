package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
)

// SetRefreshToken безусловно заменяет refresh-токен пользователя; nil очищает его.
func (s *Storage) SetRefreshToken(ctx context.Context, id uuid.UUID, token *models.RefreshToken) error {
	const op = "storage.postgres.SetRefreshToken"

	hash, issued, expires := tokenArgs(token)

	query := `
		UPDATE users
		SET refresh_token_hash = $2,
		    refresh_issued_at  = $3,
		    refresh_expires_at = $4
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, hash, issued, expires)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SwapRefreshToken заменяет токен, только если текущий хэш равен oldHash.
// Возвращает:
//
//	(true, nil)  — токен был актуален и заменён сейчас;
//	(false, nil) — пользователь есть, но токен уже другой или очищен;
//	(false, ErrNotFound) — пользователя нет.
func (s *Storage) SwapRefreshToken(ctx context.Context, id uuid.UUID, oldHash string, next *models.RefreshToken) (bool, error) {
	const op = "storage.postgres.SwapRefreshToken"

	hash, issued, expires := tokenArgs(next)

	const upd = `
		UPDATE users
		SET refresh_token_hash = $3,
		    refresh_issued_at  = $4,
		    refresh_expires_at = $5
		WHERE id = $1 AND refresh_token_hash = $2
	`

	tag, err := s.db.Exec(ctx, upd, id, oldHash, hash, issued, expires)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var one int
	err = s.db.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return false, nil
}

// DeleteExpiredTokens очищает refresh-токены, истёкшие к моменту now.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredTokens"

	query := `
		UPDATE users
		SET refresh_token_hash = NULL,
		    refresh_issued_at  = NULL,
		    refresh_expires_at = NULL
		WHERE refresh_token_hash IS NOT NULL AND refresh_expires_at <= $1
	`

	if _, err := s.db.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func tokenArgs(t *models.RefreshToken) (*string, *time.Time, *time.Time) {
	if t == nil {
		return nil, nil, nil
	}

	hash, issued, expires := t.Hash, t.IssuedAt, t.ExpiresAt
	return &hash, &issued, &expires
}
