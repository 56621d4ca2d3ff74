package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе и ротации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к защищённым операциям;
//   - RefreshToken — долгоживущий JWT для выпуска новой пары; на сервере хранится только его хэш;
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения (UTC).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Session — результат успешного входа.
type Session struct {
	Identity Identity
	Tokens   TokenPair
}
