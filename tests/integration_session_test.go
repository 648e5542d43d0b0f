package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salazarsebas/Cougr/internal/eventbus"
	"github.com/salazarsebas/Cougr/internal/game"
	"github.com/salazarsebas/Cougr/internal/storage"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

// eventCollector накапливает события шины для проверок.
type eventCollector struct {
	mu     sync.Mutex
	events []eventbus.Envelope
}

func (ec *eventCollector) handler(_ context.Context, ev *eventbus.Envelope) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.events = append(ec.events, *ev)
}

func (ec *eventCollector) types() []string {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make([]string, 0, len(ec.events))
	for _, ev := range ec.events {
		out = append(out, ev.EventType)
	}
	return out
}

// TestSessionLifecycle проверяет полный жизненный цикл партии через сервис:
// создание, серия операций, перезагрузка состояния, удаление.
func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemorySessionRepo()
	bus := eventbus.NewMemoryBus(64)
	defer bus.Close()

	collector := &eventCollector{}
	_, err := bus.Subscribe(ctx, eventbus.Filter{}, collector.handler)
	require.NoError(t, err)

	svc := game.NewSessionService(repo, nil, bus, tetris.NewFixedGenerator(tetris.ShapeO))

	// Создание
	sessionID, snap, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, uint32(1), snap.Level)
	assert.False(t, snap.GameOver)

	// Движение влево применяется и персистится
	moved, snap, err := svc.MoveLeft(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, int32(2), snap.CurrentPiece.X)

	// Второй сервис поверх того же репозитория видит то же состояние
	svc2 := game.NewSessionService(repo, nil, nil, tetris.NewFixedGenerator(tetris.ShapeO))
	reloaded, err := svc2.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, snap, reloaded)

	// Жесткое падение фиксирует фигуру и продвигает очередь
	dropped, snap, err := svc.HardDrop(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, uint32(18), dropped)
	assert.NotZero(t, snap.Board[tetris.BoardHeight-1])

	// Удаление
	require.NoError(t, svc.Delete(ctx, sessionID))
	_, err = svc.Get(ctx, sessionID)
	assert.ErrorIs(t, err, game.ErrSessionNotFound)

	// Событие о создании партии дошло до подписчика
	assert.Eventually(t, func() bool {
		for _, typ := range collector.types() {
			if typ == game.EventSessionCreated {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "событие session_created не опубликовано")
}

// TestConcurrentOperations гоняет операции по одной партии из многих горутин
// и проверяет, что снапшот остается валидным.
func TestConcurrentOperations(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemorySessionRepo()
	svc := game.NewSessionService(repo, nil, nil, tetris.NewRandomGenerator(42))

	sessionID, _, err := svc.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	ops := []func(){
		func() { _, _, _ = svc.MoveLeft(ctx, sessionID) },
		func() { _, _, _ = svc.MoveRight(ctx, sessionID) },
		func() { _, _, _ = svc.Rotate(ctx, sessionID) },
		func() { _, _, _ = svc.SoftDrop(ctx, sessionID) },
		func() { _, _ = svc.Tick(ctx, sessionID) },
	}

	for i := 0; i < 50; i++ {
		for _, op := range ops {
			wg.Add(1)
			go func(fn func()) {
				defer wg.Done()
				fn()
			}(op)
		}
	}
	wg.Wait()

	snap, err := svc.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NoError(t, tetris.ValidateSnapshot(&snap))
}

// TestGameOverIsTerminal доводит партию до конца и проверяет, что дальнейшие
// операции не меняют состояние.
func TestGameOverIsTerminal(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemorySessionRepo()
	svc := game.NewSessionService(repo, nil, nil, tetris.NewFixedGenerator(tetris.ShapeO))

	sessionID, snap, err := svc.Create(ctx)
	require.NoError(t, err)

	// Роняем фигуры до конца партии; O-фигуры в одной колонке быстро
	// заполняют стакан.
	for i := 0; i < 30 && !snap.GameOver; i++ {
		_, snap, err = svc.HardDrop(ctx, sessionID)
		require.NoError(t, err)
	}
	require.True(t, snap.GameOver, "партия не завершилась за 30 падений")

	frozen := snap
	_, snap, err = svc.SoftDrop(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, frozen, snap)

	_, snap, err = svc.HardDrop(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, frozen, snap)
}
