package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
)

// SetRefreshToken безусловно заменяет refresh-токен; nil очищает его.
func (s *Storage) SetRefreshToken(ctx context.Context, id uuid.UUID, token *models.RefreshToken) error {
	const op = "storage.mongo.SetRefreshToken"

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"refresh_token": toRefreshDoc(token)}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SwapRefreshToken — compare-and-set: старый хэш входит в фильтр UpdateOne.
func (s *Storage) SwapRefreshToken(ctx context.Context, id uuid.UUID, oldHash string, next *models.RefreshToken) (bool, error) {
	const op = "storage.mongo.SwapRefreshToken"

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id.String(), "refresh_token.hash": oldHash},
		bson.M{"$set": bson.M{"refresh_token": toRefreshDoc(next)}},
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := s.users.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return false, nil
}

// DeleteExpiredTokens очищает refresh-токены, истёкшие к моменту now.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage.mongo.DeleteExpiredTokens"

	_, err := s.users.UpdateMany(ctx,
		bson.M{"refresh_token.expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"refresh_token": nil}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
