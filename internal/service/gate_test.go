package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/pribylovaa/videohub-accounts/internal/tokens"
	"github.com/stretchr/testify/require"
)

func issueAccess(t *testing.T, svc *Service, id uuid.UUID) string {
	t.Helper()

	tok, _, err := svc.access.Issue(tokens.Claims{UserID: id, Email: "a@b.com", Handle: "a"})
	require.NoError(t, err)

	return tok
}

func TestAuthenticate_OK(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	user := &models.User{ID: uuid.New(), Handle: "a", Email: "a@b.com", PasswordHash: "h"}

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	id, err := svc.Authenticate(context.Background(), issueAccess(t, svc, user.ID))
	require.NoError(t, err)
	require.Equal(t, user.Identity(), id)
}

func TestAuthenticate_Rejections(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	ctx := context.Background()

	// Пустой и мусорный токены не доходят до хранилища.
	_, err := svc.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)

	// Refresh-токен не принимается вместо access.
	refresh, _, err := svc.refresh.Issue(tokens.Claims{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, refresh)
	require.ErrorIs(t, err, ErrUnauthorized)

	missing := uuid.New()
	st.EXPECT().UserByID(gomock.Any(), missing).Return(nil, storage.ErrNotFound)
	_, err = svc.Authenticate(ctx, issueAccess(t, svc, missing))
	require.ErrorIs(t, err, ErrUnauthorized)

	broken := uuid.New()
	st.EXPECT().UserByID(gomock.Any(), broken).Return(nil, errors.New("db down"))
	_, err = svc.Authenticate(ctx, issueAccess(t, svc, broken))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_ExpiresAtTTL(t *testing.T) {
	t.Parallel()

	svc, _, clk := newMemSvc(t)
	ctx := context.Background()

	register(t, svc, "alice", "alice@example.com", "pw")
	sess, err := svc.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)

	clk.Advance(svc.AccessTTL() - time.Second)
	_, err = svc.Authenticate(ctx, sess.Tokens.AccessToken)
	require.NoError(t, err)

	clk.Advance(time.Second)
	_, err = svc.Authenticate(ctx, sess.Tokens.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_DeletedAccount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newMemSvc(t)
	ctx := context.Background()

	id := register(t, svc, "alice", "alice@example.com", "pw")
	sess, err := svc.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, id.ID))

	_, err = svc.Authenticate(ctx, sess.Tokens.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}
