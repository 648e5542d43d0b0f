package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/salazarsebas/Cougr/internal/tetris"
)

// MemorySessionRepo реализует SessionRepo в памяти.
// Используется как fallback, когда внешняя БД недоступна,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemorySessionRepo struct {
	mu   sync.RWMutex
	data map[string]tetris.Snapshot // sessionID -> снапшот
}

// NewMemorySessionRepo создает новый репозиторий партий в памяти.
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		data: make(map[string]tetris.Snapshot),
	}
}

// Save сохраняет снапшот партии в памяти.
func (r *MemorySessionRepo) Save(ctx context.Context, sessionID string, snap tetris.Snapshot) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	// Проверяем контекст на отмену
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[sessionID] = snap
	return nil
}

// Load загружает снапшот партии из памяти.
func (r *MemorySessionRepo) Load(ctx context.Context, sessionID string) (tetris.Snapshot, bool, error) {
	if sessionID == "" {
		return tetris.Snapshot{}, false, fmt.Errorf("пустой sessionID")
	}

	// Проверяем контекст на отмену
	select {
	case <-ctx.Done():
		return tetris.Snapshot{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, exists := r.data[sessionID]
	return snap, exists, nil
}

// Delete удаляет партию из памяти.
func (r *MemorySessionRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[sessionID]; !exists {
		return fmt.Errorf("партия %s не найдена", sessionID)
	}

	delete(r.data, sessionID)
	return nil
}

// Close ничего не делает для in-memory репозитория.
func (r *MemorySessionRepo) Close() error {
	return nil
}

// Count возвращает количество сохраненных партий (для отладки).
func (r *MemorySessionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Clear очищает все сохраненные партии (для тестов).
func (r *MemorySessionRepo) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = make(map[string]tetris.Snapshot)
}
