package storage

import (
	"context"
	"errors"

	"github.com/salazarsebas/Cougr/internal/tetris"
)

// ErrNotReady возвращается, когда хранилище уже закрыто.
var ErrNotReady = errors.New("хранилище не готово")

// SessionRepo определяет интерфейс хранилища партий.
// Каждая операция движка загружает снапшот целиком, изменяет его в памяти
// и сохраняет обратно — частичных записей не бывает.
type SessionRepo interface {
	// Save сохраняет снапшот партии в хранилище.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   sessionID - уникальный идентификатор партии
	//   snap - полный снапшот состояния
	// Возвращает:
	//   error - ошибка при сохранении
	Save(ctx context.Context, sessionID string, snap tetris.Snapshot) error

	// Load загружает снапшот партии из хранилища.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   sessionID - уникальный идентификатор партии
	// Возвращает:
	//   tetris.Snapshot - снапшот партии
	//   bool - true если партия найдена
	//   error - ошибка при загрузке
	Load(ctx context.Context, sessionID string) (tetris.Snapshot, bool, error)

	// Delete удаляет партию из хранилища.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   sessionID - уникальный идентификатор партии
	// Возвращает:
	//   error - ошибка при удалении
	Delete(ctx context.Context, sessionID string) error

	// Close освобождает ресурсы хранилища.
	Close() error
}
