package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/s2"

	"github.com/salazarsebas/Cougr/internal/tetris"
)

// Префикс ключей партий в BadgerDB.
const badgerKeyPrefix = "session:"

// BadgerSessionRepo хранит партии во встраиваемой BadgerDB.
// Снапшоты сериализуются в JSON и сжимаются S2 перед записью —
// стакан из 20 масок и двух фигур сжимается в разы.
type BadgerSessionRepo struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerSessionRepo открывает (или создает) базу в каталоге dataPath/sessions.
func NewBadgerSessionRepo(dataPath string) (*BadgerSessionRepo, error) {
	dbPath := filepath.Join(dataPath, "sessions")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerSessionRepo{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Save сохраняет снапшот партии.
func (r *BadgerSessionRepo) Save(ctx context.Context, sessionID string, snap tetris.Snapshot) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return ErrNotReady
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снапшота: %w", err)
	}
	compressed := s2.Encode(nil, data)

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+sessionID), compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка записи в BadgerDB: %w", err)
	}
	return nil
}

// Load загружает снапшот партии.
func (r *BadgerSessionRepo) Load(ctx context.Context, sessionID string) (tetris.Snapshot, bool, error) {
	var snap tetris.Snapshot

	if sessionID == "" {
		return snap, false, fmt.Errorf("пустой sessionID")
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return snap, false, ErrNotReady
	}

	select {
	case <-ctx.Done():
		return snap, false, ctx.Err()
	default:
	}

	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + sessionID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data, err := s2.Decode(nil, val)
			if err != nil {
				return fmt.Errorf("ошибка распаковки снапшота: %w", err)
			}
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("ошибка десериализации снапшота: %w", err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return tetris.Snapshot{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return snap, found, nil
}

// Delete удаляет партию.
func (r *BadgerSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return ErrNotReady
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + sessionID))
	})
}

// Close закрывает базу данных.
func (r *BadgerSessionRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}

	r.isReady = false
	return r.db.Close()
}
