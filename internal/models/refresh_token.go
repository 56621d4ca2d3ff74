package models

import "time"

// RefreshToken — сохранённое состояние refresh-токена пользователя.
// Сам токен не хранится, только его SHA-256 хэш.
type RefreshToken struct {
	Hash      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired сообщает, истёк ли токен к моменту now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
