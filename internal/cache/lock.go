// cache содержит блокировки, сериализующие ротацию refresh-токена одного пользователя:
// RedisLocker — между экземплярами сервиса, LocalLocker — внутри процесса.
package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockBusy — блокировку не удалось взять за отведённое время.
var ErrLockBusy = errors.New("lock busy")

// Locker — эксклюзивная блокировка по ключу.
type Locker interface {
	// Lock ждёт освобождения ключа и возвращает функцию снятия блокировки.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

const retryInterval = 20 * time.Millisecond

// unlockLua удаляет ключ, только если он всё ещё принадлежит владельцу.
var unlockLua = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker — блокировка через SET NX PX с уникальным токеном владельца.
type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisLocker создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение. Если prefix пустой — используется "accounts:rotate:".
func NewRedisLocker(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*RedisLocker, error) {
	const op = "cache.NewRedisLocker"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewRedisLockerWithClient(rdb, prefix, ttl), nil
}

// NewRedisLockerWithClient оборачивает готовый клиент.
func NewRedisLockerWithClient(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = "accounts:rotate:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Lock пытается взять блокировку, пока не истечёт ctx или TTL блокировки.
// TTL защищает от вечной блокировки, если владелец упал.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	const op = "cache.RedisLocker.Lock"

	owner, err := newOwner()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	k := l.prefix + key
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.rdb.SetNX(ctx, k, owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = unlockLua.Run(ctx, l.rdb, []string{k}, owner).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: %w", op, ErrLockBusy)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

// Close закрывает клиент Redis.
func (l *RedisLocker) Close() error { return l.rdb.Close() }

func newOwner() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}

	return hex.EncodeToString(b[:]), nil
}

// LocalLocker — блокировка по ключу в памяти процесса.
// Записи удаляются, когда ключ никто не держит и не ждёт.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker создаёт локальную блокировку.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Lock ждёт освобождения ключа или отмены ctx.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	const op = "cache.LocalLocker.Lock"

	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, s)
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*LocalLocker)(nil)
)
