package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type refreshDoc struct {
	Hash      string    `bson:"hash"`
	IssuedAt  time.Time `bson:"issued_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type userDoc struct {
	ID           string      `bson:"_id"`
	Handle       string      `bson:"handle"`
	Email        string      `bson:"email"`
	PasswordHash string      `bson:"password_hash"`
	AvatarURL    string      `bson:"avatar_url"`
	RefreshToken *refreshDoc `bson:"refresh_token"`
	WatchHistory []string    `bson:"watch_history"`
	CreatedAt    time.Time   `bson:"created_at"`
	UpdatedAt    time.Time   `bson:"updated_at"`
}

func toDoc(u *models.User) userDoc {
	history := u.WatchHistory
	if history == nil {
		history = []string{}
	}

	return userDoc{
		ID:           u.ID.String(),
		Handle:       u.Handle,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		AvatarURL:    u.AvatarURL,
		RefreshToken: toRefreshDoc(u.RefreshToken),
		WatchHistory: history,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toRefreshDoc(t *models.RefreshToken) *refreshDoc {
	if t == nil {
		return nil
	}

	return &refreshDoc{Hash: t.Hash, IssuedAt: t.IssuedAt, ExpiresAt: t.ExpiresAt}
}

func (d *userDoc) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           id,
		Handle:       d.Handle,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		AvatarURL:    d.AvatarURL,
		WatchHistory: d.WatchHistory,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []string{}
	}
	if d.RefreshToken != nil {
		u.RefreshToken = &models.RefreshToken{
			Hash:      d.RefreshToken.Hash,
			IssuedAt:  d.RefreshToken.IssuedAt.UTC(),
			ExpiresAt: d.RefreshToken.ExpiresAt.UTC(),
		}
	}

	return u, nil
}

// SaveUser создаёт пользователя.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.mongo.SaveUser"

	if _, err := s.users.InsertOne(ctx, toDoc(user)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.mongo.UserByEmail"

	u, err := s.findOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.mongo.UserByID"

	u, err := s.findOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// UpdateUser применяет частичное изменение учётной записи.
func (s *Storage) UpdateUser(ctx context.Context, id uuid.UUID, upd models.UserUpdate, now time.Time) (*models.User, error) {
	const op = "storage.mongo.UpdateUser"

	set := bson.M{"updated_at": now}
	if upd.Handle != nil {
		set["handle"] = *upd.Handle
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}

	u, err := s.findOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// SetAvatarURL заменяет URL аватара.
func (s *Storage) SetAvatarURL(ctx context.Context, id uuid.UUID, url string, now time.Time) (*models.User, error) {
	const op = "storage.mongo.SetAvatarURL"

	u, err := s.findOneAndUpdate(ctx, bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"avatar_url": url, "updated_at": now}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// DeleteUser удаляет учётную запись.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.mongo.DeleteUser"

	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (s *Storage) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return doc.toModel()
}

func (s *Storage) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	if err := s.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongodriver.ErrNoDocuments):
			return nil, storage.ErrNotFound
		case mongodriver.IsDuplicateKeyError(err):
			return nil, storage.ErrAlreadyExists
		default:
			return nil, err
		}
	}

	return doc.toModel()
}
