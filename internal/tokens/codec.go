// tokens выпускает и проверяет подписанные JWT (HS256) для access- и refresh-токенов.
//
// Каждый Codec привязан к одному виду токена, своему секрету и сроку жизни.
// Проверка закрыта по умолчанию: любая ошибка возвращает типизированную
// ошибку и пустые Claims. Допуска по времени (leeway) нет.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind — вид токена, записывается в claim "typ".
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrExpired — срок действия токена истёк.
	ErrExpired = errors.New("token expired")
	// ErrMalformed — токен не разбирается или его claims не проходят проверку.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid — подпись не совпадает или алгоритм не HS256.
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Claims — полезная нагрузка токена.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	Handle    string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Handle string `json:"name,omitempty"`
	Kind   Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// Codec выпускает и проверяет токены одного вида.
type Codec struct {
	kind     Kind
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience []string
	now      func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIssuer задаёт iss и aud, которые записываются в токен и проверяются при разборе.
func WithIssuer(issuer string, audience []string) Option {
	return func(c *Codec) {
		c.issuer = issuer
		c.audience = audience
	}
}

// NewCodec создаёт кодек. Пустой секрет и неположительный TTL недопустимы.
func NewCodec(kind Kind, secret string, ttl time.Duration, opts ...Option) (*Codec, error) {
	const op = "tokens.NewCodec"

	if secret == "" {
		return nil, fmt.Errorf("%s: empty %s secret", op, kind)
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("%s: non-positive %s ttl", op, kind)
	}

	c := &Codec{
		kind:   kind,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Kind возвращает вид токенов кодека.
func (c *Codec) Kind() Kind { return c.kind }

// TTL возвращает срок жизни выпускаемых токенов.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue подписывает токен с переданными claims. IssuedAt, ExpiresAt и ID
// заполняются кодеком; ID — случайный jti, поэтому два токена, выпущенные
// в одну секунду, различаются. Время в JWT хранится с точностью до секунды,
// поэтому exp округляется вниз и токен может истечь до 1s раньше now+ttl.
// Возвращаемый expiresAt совпадает с exp в токене (UTC).
func (c *Codec) Issue(cl Claims) (string, time.Time, error) {
	const op = "tokens.Issue"

	if cl.UserID == uuid.Nil {
		return "", time.Time{}, fmt.Errorf("%s: empty user id", op)
	}

	now := c.now().UTC()
	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(now.Add(c.ttl))

	claims := jwtClaims{
		UserID: cl.UserID.String(),
		Email:  cl.Email,
		Handle: cl.Handle,
		Kind:   c.kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   cl.UserID.String(),
			Issuer:    c.issuer,
			IssuedAt:  iat,
			ExpiresAt: exp,
		},
	}
	if len(c.audience) > 0 {
		claims.Audience = jwt.ClaimStrings(c.audience)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp.Time, nil
}

// Verify проверяет подпись, срок действия, iss/aud и вид токена.
// Возвращает ErrSignatureInvalid, ErrExpired или ErrMalformed.
func (c *Codec) Verify(token string) (Claims, error) {
	const op = "tokens.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if len(c.audience) > 0 {
		opts = append(opts, jwt.WithAudience(c.audience...))
	}

	var claims jwtClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%s: %w", op, ErrSignatureInvalid)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%s: %w", op, ErrExpired)
		default:
			return Claims{}, fmt.Errorf("%s: %w", op, ErrMalformed)
		}
	}

	if !parsed.Valid || claims.Kind != c.kind || claims.UserID != claims.Subject {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil || uid == uuid.Nil {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	out := Claims{
		UserID: uid,
		Email:  claims.Email,
		Handle: claims.Handle,
		ID:     claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return out, nil
}
