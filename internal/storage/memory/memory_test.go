package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/stretchr/testify/require"
)

func newUser(handle, email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Handle:       handle,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSaveUser_And_Lookup(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	u := newUser("viewer", "viewer@example.com")

	require.NoError(t, st.SaveUser(ctx, u))

	got, err := st.UserByEmail(ctx, "viewer@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "viewer", got.Handle)

	_, err = st.UserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveUser_Uniqueness(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	require.NoError(t, st.SaveUser(ctx, newUser("viewer", "viewer@example.com")))

	err := st.SaveUser(ctx, newUser("viewer", "other@example.com"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	err = st.SaveUser(ctx, newUser("other", "viewer@example.com"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestReturnedUserIsACopy(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	u := newUser("viewer", "viewer@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	got.Handle = "mutated"

	again, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "viewer", again.Handle)
}

func TestUpdateUser_ConflictAndReindex(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	a := newUser("alice", "alice@example.com")
	b := newUser("bob", "bob@example.com")
	require.NoError(t, st.SaveUser(ctx, a))
	require.NoError(t, st.SaveUser(ctx, b))

	taken := "alice@example.com"
	_, err := st.UpdateUser(ctx, b.ID, models.UserUpdate{Email: &taken}, time.Now())
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	email, handle := "robert@example.com", "robert"
	got, err := st.UpdateUser(ctx, b.ID, models.UserUpdate{Email: &email, Handle: &handle}, time.Now())
	require.NoError(t, err)
	require.Equal(t, "robert", got.Handle)

	_, err = st.UserByEmail(ctx, "bob@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err = st.UserByEmail(ctx, "robert@example.com")
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)

	require.NoError(t, st.SaveUser(ctx, newUser("bob", "bob@example.com")))
}

func TestSwapRefreshToken_CAS(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	u := newUser("viewer", "viewer@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	now := time.Now().UTC()
	require.NoError(t, st.SetRefreshToken(ctx, u.ID, &models.RefreshToken{Hash: "h1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))

	ok, err := st.SwapRefreshToken(ctx, u.ID, "wrong", &models.RefreshToken{Hash: "h2"})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = st.SwapRefreshToken(ctx, u.ID, "h1", &models.RefreshToken{Hash: "h2", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.SwapRefreshToken(ctx, u.ID, "h1", &models.RefreshToken{Hash: "h3"})
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.SetRefreshToken(ctx, u.ID, nil))
	ok, err = st.SwapRefreshToken(ctx, u.ID, "h2", &models.RefreshToken{Hash: "h4"})
	require.NoError(t, err)
	require.False(t, ok)

	_, err = st.SwapRefreshToken(ctx, uuid.New(), "h2", nil)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSwapRefreshToken_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	u := newUser("viewer", "viewer@example.com")
	require.NoError(t, st.SaveUser(ctx, u))
	require.NoError(t, st.SetRefreshToken(ctx, u.ID, &models.RefreshToken{Hash: "start"}))

	const n = 32
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.SwapRefreshToken(ctx, u.ID, "start", &models.RefreshToken{Hash: uuid.NewString()})
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins)
}

func TestDeleteExpiredTokens(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	now := time.Now().UTC()

	live := newUser("live", "live@example.com")
	dead := newUser("dead", "dead@example.com")
	require.NoError(t, st.SaveUser(ctx, live))
	require.NoError(t, st.SaveUser(ctx, dead))
	require.NoError(t, st.SetRefreshToken(ctx, live.ID, &models.RefreshToken{Hash: "l", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, st.SetRefreshToken(ctx, dead.ID, &models.RefreshToken{Hash: "d", ExpiresAt: now}))

	require.NoError(t, st.DeleteExpiredTokens(ctx, now))

	got, err := st.UserByID(ctx, live.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)

	got, err = st.UserByID(ctx, dead.ID)
	require.NoError(t, err)
	require.Nil(t, got.RefreshToken)
}

func TestWatchHistory_DedupAndOrder(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	u := newUser("viewer", "viewer@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	empty, err := st.WatchHistory(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, empty)

	for _, c := range []string{"v1", "v2", "v1", "v3"} {
		_, err := st.AddToWatchHistory(ctx, u.ID, c)
		require.NoError(t, err)
	}

	got, err := st.WatchHistory(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"v1", "v2", "v3"}, got)
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	u := newUser("viewer", "viewer@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	require.NoError(t, st.DeleteUser(ctx, u.ID))
	_, err := st.UserByID(ctx, u.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, st.DeleteUser(ctx, u.ID), storage.ErrNotFound)

	require.NoError(t, st.SaveUser(ctx, newUser("viewer", "viewer@example.com")))
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	st := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, context.Canceled)
}
