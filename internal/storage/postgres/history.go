package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
)

// AddToWatchHistory дописывает contentID в конец истории, если его там нет.
func (s *Storage) AddToWatchHistory(ctx context.Context, id uuid.UUID, contentID string) ([]string, error) {
	const op = "storage.postgres.AddToWatchHistory"

	query := `
		UPDATE users
		SET watch_history = CASE
			WHEN $2::text = ANY(watch_history) THEN watch_history
			ELSE array_append(watch_history, $2::text)
		END
		WHERE id = $1
		RETURNING watch_history
	`

	var history []string
	if err := s.db.QueryRow(ctx, query, id, contentID).Scan(&history); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if history == nil {
		history = []string{}
	}

	return history, nil
}

// WatchHistory возвращает историю просмотров в порядке добавления.
func (s *Storage) WatchHistory(ctx context.Context, id uuid.UUID) ([]string, error) {
	const op = "storage.postgres.WatchHistory"

	var history []string
	err := s.db.QueryRow(ctx, `SELECT watch_history FROM users WHERE id = $1`, id).Scan(&history)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if history == nil {
		history = []string{}
	}

	return history, nil
}
