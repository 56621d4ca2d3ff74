package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/videohub-accounts/internal/metrics"
	"github.com/pribylovaa/videohub-accounts/internal/models"
	"github.com/pribylovaa/videohub-accounts/internal/storage"
	"github.com/pribylovaa/videohub-accounts/pkg/log"
	"github.com/pribylovaa/videohub-accounts/pkg/redact"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput — данные для регистрации.
type RegisterInput struct {
	Handle    string
	Email     string
	Password  string
	AvatarURL string // если пусто — аватар по умолчанию
}

// Register создаёт учётную запись. Токены не выдаются: клиент выполняет Login.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.Identity, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	handle := strings.TrimSpace(in.Handle)
	if handle == "" || isBlank(in.Password) {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	email, err := validateEmail(in.Email)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	avatar := strings.TrimSpace(in.AvatarURL)
	if avatar == "" {
		avatar = s.defaultAvatar
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    avatar,
		WatchHistory: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Info("register_conflict",
				slog.String("op", op),
				slog.String("handle", redact.Handle(handle)),
				slog.String("email", redact.Email(email)),
			)
			return models.Identity{}, fmt.Errorf("%s: %w", op, ErrConflict)
		}

		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return user.Identity(), nil
}

// Login проверяет пароль и выдаёт новую пару токенов.
// Новый refresh-токен заменяет предыдущий: у пользователя одна сессия.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	if isBlank(email) || isBlank(password) {
		metrics.Auth("login", metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	norm := normalizeEmail(email)

	user, err := s.storage.UserByEmail(ctx, norm)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.Auth("login", metrics.OutcomeRejected)
			lg.Info("login_failed",
				slog.String("op", op),
				slog.String("reason", "unknown_email"),
				slog.String("email", redact.Email(norm)),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		metrics.Auth("login", metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		metrics.Auth("login", metrics.OutcomeRejected)
		lg.Info("login_failed",
			slog.String("op", op),
			slog.String("reason", "bad_password"),
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredential)
	}

	pair, state, err := s.issuePair(user)
	if err != nil {
		metrics.Auth("login", metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetRefreshToken(ctx, user.ID, state); err != nil {
		metrics.Auth("login", metrics.OutcomeError)
		lg.Error("save_refresh_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Auth("login", metrics.OutcomeSuccess)
	lg.Info("login_succeeded",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return &models.Session{Identity: user.Identity(), Tokens: pair}, nil
}

// Logout очищает сохранённый refresh-токен. Повторный вызов не является ошибкой.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.Logout"

	if err := s.storage.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logout",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет формат email и возвращает нормализованное значение.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	return strings.ToLower(email), nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
