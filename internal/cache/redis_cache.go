package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/salazarsebas/Cougr/internal/config"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

// RedisSnapshotCache реализует SnapshotCache поверх Redis.
// Снапшоты хранятся JSON-значениями с TTL: протухший кеш безвреден,
// потому что каждая изменяющая операция перезаписывает его после коммита.
type RedisSnapshotCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration

	hits   int64
	misses int64
}

// NewRedisSnapshotCache создает кеш и проверяет соединение с Redis.
func NewRedisSnapshotCache(cfg config.RedisConfig) (*RedisSnapshotCache, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	return &RedisSnapshotCache{
		client:    client,
		keyPrefix: "tetris:session:",
		ttl:       ttl,
	}, nil
}

// Get возвращает снапшот из кеша.
func (c *RedisSnapshotCache) Get(ctx context.Context, sessionID string) (tetris.Snapshot, bool, error) {
	var snap tetris.Snapshot

	data, err := c.client.Get(ctx, c.keyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&c.misses, 1)
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("ошибка чтения из Redis: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		// Испорченная запись — выбрасываем ее и считаем промахом.
		c.client.Del(ctx, c.keyPrefix+sessionID)
		atomic.AddInt64(&c.misses, 1)
		return tetris.Snapshot{}, false, nil
	}

	atomic.AddInt64(&c.hits, 1)
	return snap, true, nil
}

// Set кладет снапшот в кеш.
func (c *RedisSnapshotCache) Set(ctx context.Context, sessionID string, snap tetris.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снапшота: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+sessionID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в Redis: %w", err)
	}
	return nil
}

// Invalidate удаляет снапшот из кеша.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.keyPrefix+sessionID).Err()
}

// Close закрывает соединение с Redis.
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

// GetMetrics возвращает счетчики попаданий/промахов.
func (c *RedisSnapshotCache) GetMetrics() Metrics {
	return Metrics{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}
