package tetris

import "testing"

// restoreSession — вспомогательная функция: восстанавливает партию из
// снапшота и падает при ошибке валидации
func restoreSession(t *testing.T, snap Snapshot, gen PieceGenerator) *Session {
	t.Helper()
	s, err := Restore(snap, gen)
	if err != nil {
		t.Fatalf("Ошибка восстановления партии: %v", err)
	}
	return s
}

// emptySnapshot возвращает снапшот свежей партии с заданной текущей фигурой
func emptySnapshot(current Piece) Snapshot {
	return Snapshot{
		CurrentPiece: current,
		NextPiece:    SpawnPiece(ShapeT),
		Level:        1,
	}
}

// TestNewSession тестирует инициализацию свежей партии
func TestNewSession(t *testing.T) {
	gen := NewFixedGenerator(ShapeI, ShapeO, ShapeT)
	s := NewSession(gen)
	snap := s.Snapshot()

	if snap.Score != 0 || snap.Level != 1 || snap.LinesCleared != 0 {
		t.Errorf("Неверные начальные значения: score=%d level=%d lines=%d",
			snap.Score, snap.Level, snap.LinesCleared)
	}
	if snap.GameOver {
		t.Error("Свежая партия не должна быть завершена")
	}
	for i, row := range snap.Board {
		if row != 0 {
			t.Errorf("Строка %d не пустая: %#x", i, row)
		}
	}
	if snap.CurrentPiece.Shape != ShapeI || snap.NextPiece.Shape != ShapeO {
		t.Errorf("Фигуры не соответствуют генератору: current=%v next=%v",
			snap.CurrentPiece.Shape, snap.NextPiece.Shape)
	}
	if snap.CurrentPiece.X != 3 || snap.CurrentPiece.Y != 0 || snap.CurrentPiece.Rotation != 0 {
		t.Errorf("Текущая фигура не в точке появления: %+v", snap.CurrentPiece)
	}
}

// TestMoveLeftToWall тестирует движение O-фигуры до левой стенки
func TestMoveLeftToWall(t *testing.T) {
	snap := emptySnapshot(Piece{Shape: ShapeO, X: 4, Y: 0, Rotation: 0})
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	// С колонки 4 влево: четыре успешных сдвига, пятый упирается в стенку.
	for i := 0; i < 4; i++ {
		if !s.MoveLeft() {
			t.Fatalf("Сдвиг влево %d не удался", i+1)
		}
	}
	if s.MoveLeft() {
		t.Error("Пятый сдвиг влево должен упереться в стенку")
	}
	if s.Snapshot().CurrentPiece.X != 0 {
		t.Errorf("Фигура не у левого края: x=%d", s.Snapshot().CurrentPiece.X)
	}
}

// TestMoveRightToWall тестирует движение до правой стенки
func TestMoveRightToWall(t *testing.T) {
	snap := emptySnapshot(Piece{Shape: ShapeO, X: 4, Y: 0, Rotation: 0})
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	// O занимает колонки x и x+1, значит правый предел пивота — колонка 8.
	for i := 0; i < 4; i++ {
		if !s.MoveRight() {
			t.Fatalf("Сдвиг вправо %d не удался", i+1)
		}
	}
	if s.MoveRight() {
		t.Error("Сдвиг за правую стенку должен быть отвергнут")
	}
}

// TestLockAndLineClear тестирует фиксацию фигуры с очисткой линии
func TestLockAndLineClear(t *testing.T) {
	snap := emptySnapshot(Piece{Shape: ShapeO, X: 8, Y: 0, Rotation: 0})
	// Нижняя строка заполнена кроме колонок 8 и 9 — ровно под падающую O.
	snap.Board[19] = fullRowMask &^ (0b11 << 8)
	s := restoreSession(t, snap, NewFixedGenerator(ShapeI))

	dropped := s.HardDrop()
	if dropped != 18 {
		t.Errorf("HardDrop прошел %d строк, ожидалось 18", dropped)
	}

	after := s.Snapshot()
	if after.LinesCleared != 1 {
		t.Errorf("Убрано %d линий, ожидалась 1", after.LinesCleared)
	}
	if after.Score != 100 {
		t.Errorf("Счет %d, ожидалось 100 (100 x уровень 1)", after.Score)
	}
	// Бывшая полная строка исчезла; верхняя половина O опустилась на дно.
	if after.Board[19] != 0b11<<8 {
		t.Errorf("Неверная нижняя строка после очистки: %#x", after.Board[19])
	}
	if after.Board[0] != 0 {
		t.Errorf("Сверху не добавлена пустая строка: %#x", after.Board[0])
	}
	// Следующая фигура стала текущей, сгенерирована новая следующая.
	if after.CurrentPiece.Shape != ShapeT {
		t.Errorf("Текущей должна стать фигура из next: %v", after.CurrentPiece.Shape)
	}
	if after.NextPiece.Shape != ShapeI {
		t.Errorf("Новая следующая фигура должна прийти из генератора: %v", after.NextPiece.Shape)
	}
}

// TestScoringTable тестирует таблицу очков для 1-4 линий
func TestScoringTable(t *testing.T) {
	cases := []struct {
		lines int
		score uint32
	}{
		{1, 100},
		{2, 300},
		{3, 500},
		{4, 800},
	}

	for _, tc := range cases {
		// Заполняем tc.lines нижних строк кроме колонки 4, роняем вертикальную I.
		snap := emptySnapshot(Piece{Shape: ShapeI, X: 4, Y: 0, Rotation: 3})
		for i := 0; i < tc.lines; i++ {
			snap.Board[BoardHeight-1-i] = fullRowMask &^ (1 << 4)
		}
		// Прямо над стопкой — преграда в соседней колонке не нужна: вертикальная
		// I занимает 4 клетки колонки 4, лишние клетки лягут выше стопки.
		s := restoreSession(t, snap, NewFixedGenerator(ShapeO))
		s.HardDrop()

		after := s.Snapshot()
		if after.LinesCleared != uint32(tc.lines) {
			t.Errorf("Линий %d: убрано %d", tc.lines, after.LinesCleared)
		}
		if after.Score != tc.score {
			t.Errorf("Линий %d: счет %d, ожидалось %d", tc.lines, after.Score, tc.score)
		}
	}
}

// TestLevelUp тестирует повышение уровня при достижении порога
func TestLevelUp(t *testing.T) {
	snap := emptySnapshot(Piece{Shape: ShapeO, X: 8, Y: 0, Rotation: 0})
	snap.Board[19] = fullRowMask &^ (0b11 << 8)
	snap.LinesCleared = 9
	snap.Score = 1500
	s := restoreSession(t, snap, NewFixedGenerator(ShapeI))

	s.HardDrop()

	after := s.Snapshot()
	if after.LinesCleared != 10 {
		t.Fatalf("Убрано линий всего: %d, ожидалось 10", after.LinesCleared)
	}
	if after.Level != 2 {
		t.Errorf("Уровень %d, ожидался 2", after.Level)
	}
	// Очки начисляются по уровню на момент фиксации (до повышения).
	if after.Score != 1600 {
		t.Errorf("Счет %d, ожидалось 1600", after.Score)
	}
}

// TestGameOverOnSpawn тестирует завершение партии, когда новой фигуре
// негде появиться
func TestGameOverOnSpawn(t *testing.T) {
	snap := emptySnapshot(Piece{Shape: ShapeO, X: 3, Y: 0, Rotation: 0})
	// Стакан забит до третьей строки; колонка 0 свободна, чтобы строки
	// не считались полными.
	for i := 2; i < BoardHeight; i++ {
		snap.Board[i] = fullRowMask &^ 1
	}
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	// Опуститься некуда: фигура фиксируется в строках 0-1, а следующая O
	// не может появиться на занятом месте.
	if s.SoftDrop() {
		t.Fatal("SoftDrop должен вернуть false и зафиксировать фигуру")
	}
	if !s.GameOver() {
		t.Fatal("Партия должна завершиться: новой фигуре негде появиться")
	}

	// После завершения все изменяющие операции — no-op.
	frozen := s.Snapshot()
	if s.MoveLeft() {
		t.Error("MoveLeft после game over должен вернуть false")
	}
	if s.Snapshot() != frozen {
		t.Error("Состояние изменилось после game over")
	}
}

// TestGameOverOnTopOut тестирует top-out: фиксация фигуры с клетками
// над видимой частью поля
func TestGameOverOnTopOut(t *testing.T) {
	// Вертикальная I упирается в преграду так, что ее верхняя клетка
	// остается над полем (строка -1).
	snap := emptySnapshot(Piece{Shape: ShapeI, X: 4, Y: 0, Rotation: 3})
	snap.Board[3] = 1 << 4
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	if s.SoftDrop() {
		t.Fatal("SoftDrop должен упереться в преграду")
	}
	if !s.GameOver() {
		t.Fatal("Top-out должен завершить партию")
	}

	after := s.Snapshot()
	// Слияния не было: на поле осталась только исходная преграда.
	for i, row := range after.Board {
		var want uint32
		if i == 3 {
			want = 1 << 4
		}
		if row != want {
			t.Errorf("Строка %d изменилась при top-out: %#x", i, row)
		}
	}
}

// TestTerminalIdempotence тестирует, что после game over любая
// последовательность изменяющих вызовов не трогает состояние
func TestTerminalIdempotence(t *testing.T) {
	snap := emptySnapshot(SpawnPiece(ShapeO))
	snap.GameOver = true
	snap.Score = 700
	snap.Level = 3
	snap.LinesCleared = 21
	snap.Board[19] = 0x155
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	frozen := s.Snapshot()

	if s.MoveLeft() || s.MoveRight() || s.Rotate() || s.SoftDrop() {
		t.Error("Изменяющие операции после game over должны возвращать false")
	}
	if n := s.HardDrop(); n != 0 {
		t.Errorf("HardDrop после game over вернул %d, ожидалось 0", n)
	}
	if got := s.Tick(); got != frozen {
		t.Error("Tick после game over вернул измененный снапшот")
	}
	if s.Snapshot() != frozen {
		t.Error("Состояние изменилось после завершения партии")
	}
}

// TestRotateOSymmetry тестирует, что поворот O не меняет занимаемые клетки
func TestRotateOSymmetry(t *testing.T) {
	snap := emptySnapshot(Piece{Shape: ShapeO, X: 4, Y: 5, Rotation: 0})
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	before := s.Snapshot().CurrentPiece.Cells()
	if !s.Rotate() {
		t.Fatal("Поворот O на пустом поле должен быть успешным")
	}
	after := s.Snapshot().CurrentPiece.Cells()

	if before != after {
		t.Errorf("Поворот O изменил клетки: %v -> %v", before, after)
	}
	if s.Snapshot().CurrentPiece.Rotation != 1 {
		t.Errorf("Индекс поворота не увеличился: %d", s.Snapshot().CurrentPiece.Rotation)
	}
}

// TestFailedMoveIsAtomic тестирует, что неудачный сдвиг ничего не меняет
func TestFailedMoveIsAtomic(t *testing.T) {
	// Горизонтальная I занимает колонки x-1..x+2: с пивотом 2 она уже
	// касается левой стенки после одного сдвига.
	snap := emptySnapshot(Piece{Shape: ShapeI, X: 2, Y: 5, Rotation: 0})
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	before := s.Snapshot()
	if !s.MoveLeft() {
		t.Fatal("Сдвиг к стенке должен быть успешным")
	}
	if s.MoveLeft() {
		t.Error("Сдвиг за стенку должен быть отвергнут")
	}
	// Кроме успешного первого шага состояние не изменилось.
	got := s.Snapshot()
	before.CurrentPiece.X = 1
	if got != before {
		t.Error("Неудачный сдвиг изменил состояние")
	}
}

// TestMonotonicity проверяет, что счет, уровень и линии не убывают
// на произвольной последовательности операций
func TestMonotonicity(t *testing.T) {
	gen := NewRandomGenerator(42)
	s := NewSession(gen)

	prev := s.Snapshot()
	ops := []func() bool{s.MoveLeft, s.MoveRight, s.Rotate, s.SoftDrop}

	for i := 0; i < 2000 && !s.GameOver(); i++ {
		ops[i%len(ops)]()
		cur := s.Snapshot()

		if cur.Score < prev.Score || cur.Level < prev.Level || cur.LinesCleared < prev.LinesCleared {
			t.Fatalf("Монотонность нарушена на шаге %d: %+v -> %+v", i, prev, cur)
		}
		for r, row := range cur.Board {
			if row > fullRowMask {
				t.Fatalf("Шаг %d: строка %d нарушает инвариант маски: %#x", i, r, row)
			}
		}
		prev = cur
	}
}

// TestRestoreValidation тестирует отбраковку испорченных снапшотов
// на границе загрузки
func TestRestoreValidation(t *testing.T) {
	gen := NewFixedGenerator(ShapeO)

	t.Run("Лишние биты в строке", func(t *testing.T) {
		snap := emptySnapshot(SpawnPiece(ShapeO))
		snap.Board[7] = 1 << BoardWidth
		if _, err := Restore(snap, gen); err == nil {
			t.Error("Снапшот с битами выше 10-й колонки должен быть отвергнут")
		}
	})

	t.Run("Недопустимый поворот", func(t *testing.T) {
		snap := emptySnapshot(Piece{Shape: ShapeT, X: 3, Y: 0, Rotation: 4})
		if _, err := Restore(snap, gen); err == nil {
			t.Error("Снапшот с поворотом 4 должен быть отвергнут")
		}
	})

	t.Run("Неизвестная фигура", func(t *testing.T) {
		snap := emptySnapshot(Piece{Shape: Shape(9), X: 3, Y: 0})
		if _, err := Restore(snap, gen); err == nil {
			t.Error("Снапшот с неизвестной фигурой должен быть отвергнут")
		}
	})

	t.Run("Нулевой уровень", func(t *testing.T) {
		snap := emptySnapshot(SpawnPiece(ShapeO))
		snap.Level = 0
		if _, err := Restore(snap, gen); err == nil {
			t.Error("Снапшот с уровнем 0 должен быть отвергнут")
		}
	})

	t.Run("Корректный снапшот", func(t *testing.T) {
		snap := emptySnapshot(SpawnPiece(ShapeO))
		if _, err := Restore(snap, gen); err != nil {
			t.Errorf("Корректный снапшот отвергнут: %v", err)
		}
	})
}

// TestTickEquivalentToSoftDrop тестирует, что Tick ведет себя как шаг гравитации
func TestTickEquivalentToSoftDrop(t *testing.T) {
	snap := emptySnapshot(Piece{Shape: ShapeT, X: 4, Y: 0, Rotation: 0})
	s := restoreSession(t, snap, NewFixedGenerator(ShapeO))

	got := s.Tick()
	if got.CurrentPiece.Y != 1 {
		t.Errorf("Tick не опустил фигуру: y=%d", got.CurrentPiece.Y)
	}
	if got != s.Snapshot() {
		t.Error("Tick вернул снапшот, не совпадающий с текущим состоянием")
	}
}
