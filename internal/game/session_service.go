package game

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"

	"github.com/salazarsebas/Cougr/internal/cache"
	"github.com/salazarsebas/Cougr/internal/eventbus"
	"github.com/salazarsebas/Cougr/internal/logging"
	"github.com/salazarsebas/Cougr/internal/storage"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

// ErrSessionNotFound возвращается для операций над несуществующей партией.
var ErrSessionNotFound = errors.New("партия не найдена")

// lockStripes — число страйпов для пер-сессионной сериализации операций.
const lockStripes = 64

// SessionService — слой персистентности вокруг движка: каждая операция
// загружает снапшот партии, прогоняет его через tetris.Session и коммитит
// обратно целиком. Конкурентные вызовы по одной партии сериализуются
// страйп-мьютексами; сам движок блокировок не делает.
type SessionService struct {
	repo    storage.SessionRepo
	cache   cache.SnapshotCache // опционален (может быть nil)
	bus     eventbus.EventBus   // опционален (может быть nil)
	gen     tetris.PieceGenerator
	metrics *serviceMetrics
	locks   [lockStripes]sync.Mutex
}

// NewSessionService создает игровой сервис.
// cache и bus могут быть nil — тогда соответствующие шаги пропускаются.
func NewSessionService(repo storage.SessionRepo, snapCache cache.SnapshotCache,
	bus eventbus.EventBus, gen tetris.PieceGenerator) *SessionService {
	return &SessionService{
		repo:    repo,
		cache:   snapCache,
		bus:     bus,
		gen:     gen,
		metrics: getServiceMetrics(),
	}
}

// Create создает новую партию и возвращает ее идентификатор и снапшот.
func (svc *SessionService) Create(ctx context.Context) (string, tetris.Snapshot, error) {
	sessionID := uuid.NewString()
	snap := tetris.NewSession(svc.gen).Snapshot()

	if err := svc.repo.Save(ctx, sessionID, snap); err != nil {
		return "", tetris.Snapshot{}, fmt.Errorf("ошибка сохранения новой партии: %w", err)
	}
	svc.cacheSet(ctx, sessionID, snap)

	svc.metrics.sessionsCreated.Inc()
	svc.publishEvent(ctx, EventSessionCreated, SessionEvent{
		SessionID: sessionID,
		Level:     snap.Level,
	})
	logging.Info("🎮 Создана партия %s (фигуры %s/%s)",
		sessionID, snap.CurrentPiece.Shape, snap.NextPiece.Shape)

	return sessionID, snap, nil
}

// Get возвращает снапшот партии: сперва из кеша, затем из хранилища.
func (svc *SessionService) Get(ctx context.Context, sessionID string) (tetris.Snapshot, error) {
	if svc.cache != nil {
		if snap, ok, err := svc.cache.Get(ctx, sessionID); err == nil && ok {
			return snap, nil
		}
	}

	snap, found, err := svc.repo.Load(ctx, sessionID)
	if err != nil {
		return tetris.Snapshot{}, fmt.Errorf("ошибка загрузки партии %s: %w", sessionID, err)
	}
	if !found {
		return tetris.Snapshot{}, ErrSessionNotFound
	}
	if err := tetris.ValidateSnapshot(&snap); err != nil {
		return tetris.Snapshot{}, fmt.Errorf("испорченный снапшот партии %s: %w", sessionID, err)
	}

	svc.cacheSet(ctx, sessionID, snap)
	return snap, nil
}

// Delete удаляет партию из хранилища и кеша.
func (svc *SessionService) Delete(ctx context.Context, sessionID string) error {
	if svc.cache != nil {
		if err := svc.cache.Invalidate(ctx, sessionID); err != nil {
			logging.Warn("Кеш партии %s не инвалидирован: %v", sessionID, err)
		}
	}
	return svc.repo.Delete(ctx, sessionID)
}

// MoveLeft сдвигает текущую фигуру влево.
func (svc *SessionService) MoveLeft(ctx context.Context, sessionID string) (bool, tetris.Snapshot, error) {
	var moved bool
	snap, err := svc.mutate(ctx, sessionID, "move_left", func(s *tetris.Session) {
		moved = s.MoveLeft()
	})
	svc.metrics.observeOp("move_left", moved)
	return moved, snap, err
}

// MoveRight сдвигает текущую фигуру вправо.
func (svc *SessionService) MoveRight(ctx context.Context, sessionID string) (bool, tetris.Snapshot, error) {
	var moved bool
	snap, err := svc.mutate(ctx, sessionID, "move_right", func(s *tetris.Session) {
		moved = s.MoveRight()
	})
	svc.metrics.observeOp("move_right", moved)
	return moved, snap, err
}

// Rotate поворачивает текущую фигуру по часовой стрелке.
func (svc *SessionService) Rotate(ctx context.Context, sessionID string) (bool, tetris.Snapshot, error) {
	var rotated bool
	snap, err := svc.mutate(ctx, sessionID, "rotate", func(s *tetris.Session) {
		rotated = s.Rotate()
	})
	svc.metrics.observeOp("rotate", rotated)
	return rotated, snap, err
}

// SoftDrop опускает фигуру на строку; при невозможности фиксирует ее.
func (svc *SessionService) SoftDrop(ctx context.Context, sessionID string) (bool, tetris.Snapshot, error) {
	var dropped bool
	snap, err := svc.mutate(ctx, sessionID, "soft_drop", func(s *tetris.Session) {
		dropped = s.SoftDrop()
	})
	svc.metrics.observeOp("soft_drop", dropped)
	return dropped, snap, err
}

// HardDrop роняет фигуру до упора; возвращает число пройденных строк.
func (svc *SessionService) HardDrop(ctx context.Context, sessionID string) (uint32, tetris.Snapshot, error) {
	var count uint32
	snap, err := svc.mutate(ctx, sessionID, "hard_drop", func(s *tetris.Session) {
		count = s.HardDrop()
	})
	svc.metrics.observeOp("hard_drop", count > 0)
	return count, snap, err
}

// Tick выполняет шаг гравитации и возвращает обновленный снапшот.
func (svc *SessionService) Tick(ctx context.Context, sessionID string) (tetris.Snapshot, error) {
	snap, err := svc.mutate(ctx, sessionID, "tick", func(s *tetris.Session) {
		s.Tick()
	})
	svc.metrics.observeOp("tick", err == nil)
	return snap, err
}

// mutate — общий каркас изменяющей операции: загрузка, восстановление,
// мутация, атомарный коммит. Либо фиксируется весь обновленный снапшот,
// либо (при любой ошибке) хранилище остается нетронутым.
func (svc *SessionService) mutate(ctx context.Context, sessionID, op string,
	fn func(*tetris.Session)) (tetris.Snapshot, error) {

	lock := &svc.locks[stripeFor(sessionID)]
	lock.Lock()
	defer lock.Unlock()

	before, found, err := svc.repo.Load(ctx, sessionID)
	if err != nil {
		return tetris.Snapshot{}, fmt.Errorf("ошибка загрузки партии %s: %w", sessionID, err)
	}
	if !found {
		return tetris.Snapshot{}, ErrSessionNotFound
	}

	sess, err := tetris.Restore(before, svc.gen)
	if err != nil {
		// Испорченный снапшот — программная ошибка на границе загрузки.
		return tetris.Snapshot{}, fmt.Errorf("испорченный снапшот партии %s: %w", sessionID, err)
	}

	fn(sess)
	after := sess.Snapshot()

	if after != before {
		if err := svc.repo.Save(ctx, sessionID, after); err != nil {
			return tetris.Snapshot{}, fmt.Errorf("ошибка сохранения партии %s: %w", sessionID, err)
		}
		svc.cacheSet(ctx, sessionID, after)
		svc.publishDiff(ctx, sessionID, before, after)
	}

	logging.Trace("Операция %s над партией %s: score=%d level=%d game_over=%v",
		op, sessionID, after.Score, after.Level, after.GameOver)
	return after, nil
}

// cacheSet обновляет кеш снапшота; промахи и ошибки кеша не фатальны.
func (svc *SessionService) cacheSet(ctx context.Context, sessionID string, snap tetris.Snapshot) {
	if svc.cache == nil {
		return
	}
	if err := svc.cache.Set(ctx, sessionID, snap); err != nil {
		logging.Warn("Кеш партии %s не обновлен: %v", sessionID, err)
	}
}

// stripeFor выбирает страйп-мьютекс по идентификатору партии.
func stripeFor(sessionID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return h.Sum32() % lockStripes
}
