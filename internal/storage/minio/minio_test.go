package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/videohub-accounts/internal/config"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты поднимают MinIO через testcontainers-go и создают бакет для аватаров.
//
// Запуск:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/minio -v -race -count=1

const (
	rootUser     = "root"
	rootPassword = "rootpass"
	bucket       = "avatars"
)

func avatarCfg() config.AvatarConfig {
	return config.AvatarConfig{
		MaxSizeBytes:        1 << 20,
		AllowedContentTypes: []string{"image/png", "image/jpeg", "image/webp"},
	}
}

func startMinio(t *testing.T, createBucket bool) (string, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image: "docker.io/minio/minio:latest",
		Env: map[string]string{
			"MINIO_ROOT_USER":     rootUser,
			"MINIO_ROOT_PASSWORD": rootPassword,
		},
		Cmd:          []string{"server", "/data"},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "9000/tcp")

	if createBucket {
		admin, err := mclient.New(host+":"+port.Port(), &mclient.Options{
			Creds: credentials.NewStaticV4(rootUser, rootPassword, ""),
		})
		require.NoError(t, err)
		require.NoError(t, admin.MakeBucket(ctx, bucket, mclient.MakeBucketOptions{Region: "us-east-1"}))
	}

	return fmt.Sprintf("http://%s:%s", host, port.Port()), func() { _ = c.Terminate(context.Background()) }
}

func s3Cfg(endpoint, public string) config.S3Config {
	return config.S3Config{
		Endpoint:      endpoint,
		RootUser:      rootUser,
		RootPassword:  rootPassword,
		Bucket:        bucket,
		PresignTTL:    2 * time.Minute,
		PublicBaseURL: public,
	}
}

func put(t *testing.T, url, contentType string, body []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "PUT must succeed")
}

func TestPublicBase(t *testing.T) {
	t.Parallel()

	require.Equal(t, "http://cdn.local", publicBase("http://cdn.local/", "http://minio:9000", "avatars"))
	require.Equal(t, "http://minio:9000/avatars", publicBase("", "http://minio:9000/", "avatars"))
}

func TestExtAndAllowList(t *testing.T) {
	t.Parallel()

	require.Equal(t, ".png", extFor("image/png"))
	require.Equal(t, ".jpg", extFor("image/jpeg"))
	require.Equal(t, "", extFor("application/octet-stream"))

	require.True(t, isAllowedContentType([]string{"image/png"}, "image/png"))
	require.False(t, isAllowedContentType([]string{"image/png"}, "image/gif"))
	require.False(t, isAllowedContentType(nil, "image/png"))
}

func TestIntegration_New_BucketMustExist(t *testing.T) {
	endpoint, cleanup := startMinio(t, false)
	defer cleanup()

	_, err := New(context.Background(), s3Cfg(endpoint, ""), avatarCfg())
	require.Error(t, err)
}

func TestIntegration_UploadAndConfirm_OK(t *testing.T) {
	endpoint, cleanup := startMinio(t, true)
	defer cleanup()

	st, err := New(context.Background(), s3Cfg(endpoint, "http://cdn.local/"), avatarCfg())
	require.NoError(t, err)

	uid := uuid.New()
	const size = 5
	up, err := st.AvatarUploadURL(context.Background(), uid, "image/png", size)
	require.NoError(t, err)
	require.Contains(t, up.AvatarKey, "avatars/"+uid.String()+"/")
	require.Equal(t, "image/png", up.RequiredHeader["Content-Type"])
	require.Equal(t, strconv.Itoa(size), up.RequiredHeader["Content-Length"])

	put(t, up.UploadURL, "image/png", bytes.Repeat([]byte{0x42}, size))

	public, err := st.CheckAvatarUpload(context.Background(), uid, up.AvatarKey)
	require.NoError(t, err)
	require.Equal(t, "http://cdn.local/"+up.AvatarKey, public)
}

func TestIntegration_UploadURL_InvalidArgs(t *testing.T) {
	endpoint, cleanup := startMinio(t, true)
	defer cleanup()

	st, err := New(context.Background(), s3Cfg(endpoint, ""), avatarCfg())
	require.NoError(t, err)

	uid := uuid.New()
	_, err = st.AvatarUploadURL(context.Background(), uid, "image/gif", 10)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.AvatarUploadURL(context.Background(), uid, "image/png", 0)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.AvatarUploadURL(context.Background(), uid, "image/png", 2<<20)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)
}

func TestIntegration_CheckAvatarUpload_Errors(t *testing.T) {
	endpoint, cleanup := startMinio(t, true)
	defer cleanup()

	st, err := New(context.Background(), s3Cfg(endpoint, ""), avatarCfg())
	require.NoError(t, err)

	uid := uuid.New()

	_, err = st.CheckAvatarUpload(context.Background(), uid, "avatars/"+uuid.NewString()+"/x.png")
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.CheckAvatarUpload(context.Background(), uid, "avatars/"+uid.String()+"/missing.png")
	require.ErrorIs(t, err, storage.ErrAvatarNotFound)
}
