package tetris

import "testing"

// TestBoardOccupiedAndMerge тестирует чтение и установку битов поля
func TestBoardOccupiedAndMerge(t *testing.T) {
	var b Board

	if b.Occupied(5, 3) {
		t.Error("Клетка (5,3) занята на пустом поле")
	}

	b.Merge([]Cell{{X: 3, Y: 5}, {X: 0, Y: 19}, {X: 9, Y: 0}})

	if !b.Occupied(5, 3) {
		t.Error("Клетка (5,3) не занята после Merge")
	}
	if !b.Occupied(19, 0) {
		t.Error("Клетка (19,0) не занята после Merge")
	}
	if !b.Occupied(0, 9) {
		t.Error("Клетка (0,9) не занята после Merge")
	}
	if b.Occupied(5, 4) {
		t.Error("Соседняя клетка (5,4) ошибочно занята")
	}
}

// TestClearFullRows тестирует удаление заполненных строк и компактацию
func TestClearFullRows(t *testing.T) {
	t.Run("Нет заполненных строк", func(t *testing.T) {
		var b Board
		b[19] = 0x1FF // 9 из 10 бит

		if n := b.ClearFullRows(); n != 0 {
			t.Errorf("Удалено %d строк, ожидалось 0", n)
		}
		if b[19] != 0x1FF {
			t.Errorf("Поле изменилось без заполненных строк: %#x", b[19])
		}
	})

	t.Run("Одна строка внизу", func(t *testing.T) {
		var b Board
		b[18] = 0b0000110011
		b[19] = fullRowMask

		if n := b.ClearFullRows(); n != 1 {
			t.Errorf("Удалено %d строк, ожидалась 1", n)
		}
		if b[19] != 0b0000110011 {
			t.Errorf("Строка над удаленной не опустилась вниз: %#x", b[19])
		}
		if b[0] != 0 {
			t.Errorf("Сверху не добавлена пустая строка: %#x", b[0])
		}
	})

	t.Run("Несмежные строки с сохранением порядка", func(t *testing.T) {
		var b Board
		b[10] = fullRowMask
		b[12] = 0x00F
		b[15] = fullRowMask
		b[17] = 0x3F0
		b[19] = fullRowMask

		if n := b.ClearFullRows(); n != 3 {
			t.Errorf("Удалено %d строк, ожидалось 3", n)
		}

		// Незаполненные строки сохраняют относительный порядок и уезжают вниз.
		if b[17] != 0x00F {
			t.Errorf("Строка 0x00F оказалась не на месте: b[17]=%#x", b[17])
		}
		if b[19] != 0x3F0 {
			t.Errorf("Строка 0x3F0 оказалась не на месте: b[19]=%#x", b[19])
		}
		for i := 0; i < 3; i++ {
			if b[i] != 0 {
				t.Errorf("Строка %d сверху не пустая: %#x", i, b[i])
			}
		}
	})

	t.Run("Полностью заполненное поле", func(t *testing.T) {
		var b Board
		for i := range b {
			b[i] = fullRowMask
		}

		if n := b.ClearFullRows(); n != BoardHeight {
			t.Errorf("Удалено %d строк, ожидалось %d", n, BoardHeight)
		}
		for i, row := range b {
			if row != 0 {
				t.Errorf("Строка %d не пустая после полной очистки: %#x", i, row)
			}
		}
	})
}

// TestRowMaskInvariant проверяет, что операции поля не устанавливают биты
// выше десятой колонки
func TestRowMaskInvariant(t *testing.T) {
	var b Board
	b.Merge([]Cell{{X: 9, Y: 0}, {X: 9, Y: 19}})
	b[5] = fullRowMask
	b.ClearFullRows()

	for i, row := range b {
		if row > fullRowMask {
			t.Errorf("Строка %d нарушает инвариант маски: %#x", i, row)
		}
	}
}
