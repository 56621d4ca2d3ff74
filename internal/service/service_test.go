package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/videohub-accounts/internal/config"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage/memory"
	"github.com/pribylovaa/videohub-accounts/mocks"
	"github.com/stretchr/testify/require"
)

const defaultAvatar = "https://static.test/default.png"

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "unit-access-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenSecret: "unit-refresh-secret",
		RefreshTokenTTL:    7 * 24 * time.Hour,
		Issuer:             "accounts-service",
		Audience:           []string{"videohub"},
	}
}

// fakeClock — управляемое время для проверки сроков жизни токенов.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSvc(t *testing.T, opts ...Option) (*Service, *mocks.MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	opts = append([]Option{WithDefaultAvatar(defaultAvatar)}, opts...)
	svc, err := New(st, testCfg(), opts...)
	require.NoError(t, err)

	return svc, st
}

func newMemSvc(t *testing.T, opts ...Option) (*Service, *memory.Storage, *fakeClock) {
	t.Helper()

	st := memory.New()
	clk := newFakeClock()

	opts = append([]Option{WithDefaultAvatar(defaultAvatar), WithClock(clk.Now)}, opts...)
	svc, err := New(st, testCfg(), opts...)
	require.NoError(t, err)

	return svc, st, clk
}

func register(t *testing.T, svc *Service, handle, email, pw string) models.Identity {
	t.Helper()

	id, err := svc.Register(context.Background(), RegisterInput{Handle: handle, Email: email, Password: pw})
	require.NoError(t, err)

	return id
}

func TestNew_RejectsBadCodecConfig(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	cfg.AccessTokenSecret = ""
	_, err := New(nil, cfg)
	require.Error(t, err)

	cfg = testCfg()
	cfg.RefreshTokenTTL = 0
	_, err = New(nil, cfg)
	require.Error(t, err)
}

func TestPurgeExpiredTokens(t *testing.T) {
	t.Parallel()

	svc, st, clk := newMemSvc(t)
	ctx := context.Background()

	id := register(t, svc, "alice", "alice@example.com", "pw-123456")
	_, err := svc.Login(ctx, "alice@example.com", "pw-123456")
	require.NoError(t, err)

	clk.Advance(8 * 24 * time.Hour)
	require.NoError(t, svc.PurgeExpiredTokens(ctx))

	u, err := st.UserByID(ctx, id.ID)
	require.NoError(t, err)
	require.Nil(t, u.RefreshToken)
}
