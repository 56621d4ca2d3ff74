package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type historyDoc struct {
	WatchHistory []string `bson:"watch_history"`
}

// AddToWatchHistory добавляет contentID через $addToSet: дубликаты не пишутся, порядок сохраняется.
func (s *Storage) AddToWatchHistory(ctx context.Context, id uuid.UUID, contentID string) ([]string, error) {
	const op = "storage.mongo.AddToWatchHistory"

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"watch_history": 1})

	var doc historyDoc
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$addToSet": bson.M{"watch_history": contentID}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return nonNil(doc.WatchHistory), nil
}

// WatchHistory возвращает историю просмотров.
func (s *Storage) WatchHistory(ctx context.Context, id uuid.UUID) ([]string, error) {
	const op = "storage.mongo.WatchHistory"

	opts := options.FindOne().SetProjection(bson.M{"watch_history": 1})

	var doc historyDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": id.String()}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return nonNil(doc.WatchHistory), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
