package storage

import (
	"context"
	"testing"

	"github.com/salazarsebas/Cougr/internal/tetris"
)

// TestMemorySessionRepo тестирует in-memory репозиторий партий
func TestMemorySessionRepo(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		snap := tetris.NewSession(tetris.NewFixedGenerator(tetris.ShapeI, tetris.ShapeT)).Snapshot()
		snap.Score = 300

		if err := repo.Save(ctx, "s-1", snap); err != nil {
			t.Fatalf("Ошибка сохранения партии: %v", err)
		}

		loaded, found, err := repo.Load(ctx, "s-1")
		if err != nil {
			t.Fatalf("Ошибка загрузки партии: %v", err)
		}
		if !found {
			t.Fatal("Партия не найдена")
		}
		if loaded != snap {
			t.Errorf("Снапшот изменился при сохранении: %+v != %+v", loaded, snap)
		}
	})

	t.Run("Load Non-Existent Session", func(t *testing.T) {
		_, found, err := repo.Load(ctx, "missing")
		if err != nil {
			t.Fatalf("Ошибка при загрузке несуществующей партии: %v", err)
		}
		if found {
			t.Error("Найдена несуществующая партия")
		}
	})

	t.Run("Update Session", func(t *testing.T) {
		first := tetris.NewSession(tetris.NewFixedGenerator(tetris.ShapeO)).Snapshot()
		second := first
		second.Score = 800
		second.LinesCleared = 4

		if err := repo.Save(ctx, "s-2", first); err != nil {
			t.Fatalf("Ошибка сохранения первой версии: %v", err)
		}
		if err := repo.Save(ctx, "s-2", second); err != nil {
			t.Fatalf("Ошибка обновления партии: %v", err)
		}

		loaded, found, err := repo.Load(ctx, "s-2")
		if err != nil || !found {
			t.Fatalf("Ошибка загрузки обновленной партии: found=%v err=%v", found, err)
		}
		if loaded.Score != 800 {
			t.Errorf("Обновление не применилось: score=%d", loaded.Score)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		snap := tetris.NewSession(tetris.NewFixedGenerator(tetris.ShapeO)).Snapshot()
		if err := repo.Save(ctx, "s-3", snap); err != nil {
			t.Fatalf("Ошибка сохранения: %v", err)
		}
		if err := repo.Delete(ctx, "s-3"); err != nil {
			t.Fatalf("Ошибка удаления: %v", err)
		}
		if _, found, _ := repo.Load(ctx, "s-3"); found {
			t.Error("Партия найдена после удаления")
		}
		if err := repo.Delete(ctx, "s-3"); err == nil {
			t.Error("Повторное удаление должно вернуть ошибку")
		}
	})

	t.Run("Empty SessionID", func(t *testing.T) {
		if err := repo.Save(ctx, "", tetris.Snapshot{}); err == nil {
			t.Error("Сохранение с пустым sessionID должно вернуть ошибку")
		}
		if _, _, err := repo.Load(ctx, ""); err == nil {
			t.Error("Загрузка с пустым sessionID должна вернуть ошибку")
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		if err := repo.Save(cancelled, "s-4", tetris.Snapshot{}); err == nil {
			t.Error("Сохранение с отмененным контекстом должно вернуть ошибку")
		}
	})
}
