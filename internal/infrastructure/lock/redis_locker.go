package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-caja/internal/domain"
)

// RedisLocker exclusión por llave entre instancias de la API usando redislock.
type RedisLocker struct {
	client  *redislock.Client
	prefix  string
	ttl     time.Duration
	backoff time.Duration
	wait    time.Duration
	log     zerolog.Logger
}

// RedisLockerConfig parámetros del locker distribuido.
type RedisLockerConfig struct {
	Prefix  string        // prefijo de las llaves, p. ej. "inventario:lock:"
	TTL     time.Duration // vida máxima del bloqueo si el proceso muere
	Backoff time.Duration // intervalo entre reintentos
	Wait    time.Duration // espera máxima por llave
}

// NewRedisLocker construye el locker sobre un cliente go-redis.
func NewRedisLocker(rdb redis.UniversalClient, cfg RedisLockerConfig, log zerolog.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 50 * time.Millisecond
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 5 * time.Second
	}
	return &RedisLocker{
		client:  redislock.New(rdb),
		prefix:  cfg.Prefix,
		ttl:     cfg.TTL,
		backoff: cfg.Backoff,
		wait:    cfg.Wait,
		log:     log.With().Str("component", "redis_locker").Logger(),
	}
}

// Acquire obtiene las llaves en orden; si alguna no se obtiene dentro de la espera libera
// las anteriores y devuelve ErrConflict.
func (r *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		// Release con contexto propio: el de la petición puede estar cancelado.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				r.log.Warn().Err(err).Str("key", held[i].Key()).Msg("no se pudo liberar el bloqueo")
			}
		}
	}
	for _, key := range keys {
		octx, cancel := context.WithTimeout(ctx, r.wait)
		l, err := r.client.Obtain(octx, r.prefix+key, r.ttl, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(r.backoff),
		})
		cancel()
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: bloqueo %s ocupado", domain.ErrConflict, key)
			}
			return nil, fmt.Errorf("obtener bloqueo %s: %w", key, err)
		}
		held = append(held, l)
	}
	return release, nil
}
