package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/tokens"
)

// issuePair выпускает access и refresh токены и возвращает состояние
// refresh-токена для сохранения в хранилище.
func (s *Service) issuePair(user *models.User) (models.TokenPair, *models.RefreshToken, error) {
	const op = "service.tokens.issuePair"

	access, accessExp, err := s.access.Issue(tokens.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Handle: user.Handle,
	})
	if err != nil {
		return models.TokenPair{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := s.refresh.Issue(tokens.Claims{UserID: user.ID})
	if err != nil {
		return models.TokenPair{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair := models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}

	state := &models.RefreshToken{
		Hash:      hashToken(refresh),
		IssuedAt:  s.now().UTC(),
		ExpiresAt: refreshExp,
	}

	return pair, state, nil
}

// hashToken — SHA-256 от токена в base64url без паддинга.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
