package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись в хранилище.
//
// PasswordHash и RefreshToken никогда не покидают сервисный слой:
// наружу отдаётся только Identity.
type User struct {
	ID           uuid.UUID
	Handle       string
	Email        string
	PasswordHash string
	AvatarURL    string
	// RefreshToken — единственный действующий refresh-токен (nil, если сессии нет).
	RefreshToken *RefreshToken
	WatchHistory []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity — публичное представление пользователя без секретов.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity возвращает публичное представление пользователя.
func (u *User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Handle:    u.Handle,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserUpdate — частичное изменение учётной записи; nil-поля не меняются.
type UserUpdate struct {
	Handle       *string
	Email        *string
	PasswordHash *string
}
