// minio реализует storage.Avatars поверх MinIO/S3:
//   - minio.go — конструктор клиента (нормализация endpoint, проверка бакета);
//   - avatars.go — presigned PUT и подтверждение загрузки.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/videohub-accounts/internal/config"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
)

// AvatarsStorage — адаптер MinIO для аватаров.
type AvatarsStorage struct {
	s3      config.S3Config
	avatar  config.AvatarConfig
	client  *mclient.Client
	baseURL string
}

// New создаёт клиент MinIO и проверяет, что бакет существует.
// Endpoint может быть указан со схемой (http/https) или без неё.
func New(ctx context.Context, s3 config.S3Config, avatar config.AvatarConfig) (*AvatarsStorage, error) {
	const op = "storage.minio.New"

	endpoint := s3.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(s3.RootUser, s3.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, s3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, s3.Bucket)
	}

	return &AvatarsStorage{
		s3:      s3,
		avatar:  avatar,
		client:  client,
		baseURL: publicBase(s3.PublicBaseURL, client.EndpointURL().String(), s3.Bucket),
	}, nil
}

// publicBase — префикс публичных URL объектов. Без PublicBaseURL используется
// path-style адрес самого хранилища.
func publicBase(public, endpoint, bucket string) string {
	if public != "" {
		return strings.TrimRight(public, "/")
	}

	return strings.TrimRight(endpoint, "/") + "/" + bucket
}

// Проверка выполнения контракта.
var _ storage.Avatars = (*AvatarsStorage)(nil)
