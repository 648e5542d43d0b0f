package cache

import (
	"context"

	"github.com/salazarsebas/Cougr/internal/tetris"
)

// SnapshotCache определяет интерфейс кеша снапшотов партий.
// Кеш ускоряет чтения (get_state): горячие партии читаются из Redis,
// авторитетным источником остается SessionRepo.
//
// Использование:
//
//	c, _ := NewRedisSnapshotCache(cfg)
//	snap, ok, err := c.Get(ctx, id)
//	err = c.Set(ctx, id, snap)
//	err = c.Invalidate(ctx, id)
type SnapshotCache interface {
	// Get возвращает снапшот из кеша; ok=false при промахе.
	Get(ctx context.Context, sessionID string) (tetris.Snapshot, bool, error)

	// Set кладет снапшот в кеш с настроенным TTL.
	Set(ctx context.Context, sessionID string, snap tetris.Snapshot) error

	// Invalidate удаляет снапшот из кеша.
	Invalidate(ctx context.Context, sessionID string) error

	// Close закрывает соединение с кешем.
	Close() error
}

// Metrics содержит счетчики производительности кеша.
type Metrics struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}
