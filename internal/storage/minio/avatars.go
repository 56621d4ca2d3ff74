package minio

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
)

// AvatarUploadURL генерирует presigned PUT URL для ключа "avatars/<userID>/<uuid><ext>"
// и возвращает заголовки, которые клиент обязан передать при загрузке.
func (s *AvatarsStorage) AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*models.AvatarUpload, error) {
	const op = "storage.minio.AvatarUploadURL"

	if contentLength <= 0 || contentLength > s.avatar.MaxSizeBytes {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if !isAllowedContentType(s.avatar.AllowedContentTypes, contentType) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	key := path.Join(avatarPrefix(userID), uuid.NewString()+extFor(contentType))

	u, err := s.client.PresignedPutObject(ctx, s.s3.Bucket, key, s.s3.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AvatarUpload{
		UploadURL: u.String(),
		AvatarKey: key,
		Expires:   s.s3.PresignTTL,
		RequiredHeader: map[string]string{
			"Content-Type":   contentType,
			"Content-Length": strconv.FormatInt(contentLength, 10),
		},
	}, nil
}

// CheckAvatarUpload подтверждает загрузку: ключ принадлежит пользователю,
// объект существует и укладывается в ограничения размера и типа.
func (s *AvatarsStorage) CheckAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	const op = "storage.minio.CheckAvatarUpload"

	if !strings.HasPrefix(key, avatarPrefix(userID)+"/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	info, err := s.client.StatObject(ctx, s.s3.Bucket, key, mclient.StatObjectOptions{})
	if err != nil {
		resp := mclient.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%s: %w", op, storage.ErrAvatarNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if info.Size <= 0 || info.Size > s.avatar.MaxSizeBytes {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if ct := info.ContentType; ct != "" && !isAllowedContentType(s.avatar.AllowedContentTypes, ct) {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	return s.baseURL + "/" + key, nil
}

func avatarPrefix(userID uuid.UUID) string {
	return "avatars/" + userID.String()
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// isAllowedContentType проверяет, что тип содержимого входит в allow-list.
func isAllowedContentType(allow []string, contentType string) bool {
	for _, a := range allow {
		if a == contentType {
			return true
		}
	}

	return false
}
