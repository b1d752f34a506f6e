package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter compartilha as janelas fixas entre instâncias. A janela começa no primeiro
// INCR da chave e termina quando a chave expira.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url inválida: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (r *RedisLimiter) Check(ctx context.Context, key string, opts Options) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	redisKey := keyPrefix + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, redisKey, opts.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("redis pexpire: %w", err)
		}
	}

	ttl, err := r.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		// chave ficou sem expiração (crash entre INCR e PEXPIRE); abre uma nova janela
		if err := r.client.PExpire(ctx, redisKey, opts.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("redis pexpire: %w", err)
		}
		ttl = opts.Window
	}

	return Result{
		Allowed:   int(count) <= opts.MaxRequests,
		Limit:     opts.MaxRequests,
		Remaining: remaining(opts.MaxRequests, int(count)),
		ResetTime: r.now().Add(ttl),
	}, nil
}
