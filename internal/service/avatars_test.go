package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/stretchr/testify/require"
)

// fakeAvatars — хранилище аватаров без S3.
type fakeAvatars struct {
	uploaded map[string]bool
}

func (f *fakeAvatars) AvatarUploadURL(_ context.Context, userID uuid.UUID, contentType string, size int64) (*models.AvatarUpload, error) {
	if contentType != "image/png" || size <= 0 {
		return nil, storage.ErrInvalidArgument
	}

	return &models.AvatarUpload{
		UploadURL: "https://s3.test/upload",
		AvatarKey: "avatars/" + userID.String() + "/a.png",
		Expires:   10 * time.Minute,
	}, nil
}

func (f *fakeAvatars) CheckAvatarUpload(_ context.Context, _ uuid.UUID, key string) (string, error) {
	if !f.uploaded[key] {
		return "", storage.ErrAvatarNotFound
	}

	return "https://cdn.test/" + key, nil
}

func TestAvatars_Disabled(t *testing.T) {
	t.Parallel()

	svc, _, _ := newMemSvc(t)
	require.False(t, svc.AvatarsEnabled())

	_, err := svc.AvatarUploadURL(context.Background(), uuid.New(), "image/png", 10)
	require.ErrorIs(t, err, ErrAvatarsDisabled)

	_, err = svc.ConfirmAvatar(context.Background(), uuid.New(), "k")
	require.ErrorIs(t, err, ErrAvatarsDisabled)
}

func TestAvatars_UploadAndConfirm(t *testing.T) {
	t.Parallel()

	av := &fakeAvatars{uploaded: map[string]bool{}}
	svc, _, _ := newMemSvc(t, WithAvatars(av))
	ctx := context.Background()

	id := register(t, svc, "alice", "alice@example.com", "pw")
	require.Equal(t, defaultAvatar, id.AvatarURL)

	_, err := svc.AvatarUploadURL(ctx, id.ID, "text/plain", 10)
	require.ErrorIs(t, err, ErrInvalidInput)

	up, err := svc.AvatarUploadURL(ctx, id.ID, "image/png", 10)
	require.NoError(t, err)

	_, err = svc.ConfirmAvatar(ctx, id.ID, up.AvatarKey)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ConfirmAvatar(ctx, id.ID, "  ")
	require.ErrorIs(t, err, ErrInvalidInput)

	av.uploaded[up.AvatarKey] = true
	got, err := svc.ConfirmAvatar(ctx, id.ID, up.AvatarKey)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/"+up.AvatarKey, got.AvatarURL)
}
