package tetris

// Размеры игрового поля. Классические 10 колонок на 20 строк.
const (
	BoardWidth  = 10
	BoardHeight = 20
)

// fullRowMask — маска полностью заполненной строки (нижние BoardWidth бит).
const fullRowMask = (1 << BoardWidth) - 1

// Cell — абсолютная клетка поля: X — колонка [0, BoardWidth), Y — строка.
// Отрицательный Y означает позицию над видимой частью поля.
type Cell struct {
	X int32
	Y int32
}

// Board — игровое поле. Каждая строка хранится битовой маской:
// бит i установлен, если колонка i занята. Индекс 0 — верхняя строка.
// Инвариант: биты выше позиции BoardWidth никогда не устанавливаются.
type Board [BoardHeight]uint32

// Occupied сообщает, занята ли клетка (row, col).
// Координаты должны быть в границах поля — проверок здесь нет.
func (b *Board) Occupied(row, col int32) bool {
	return (b[row]>>uint(col))&1 == 1
}

// Merge устанавливает биты перечисленных клеток.
// Клетки должны быть заранее проверены на попадание в границы и отсутствие
// коллизий — это обязанность вызывающего кода.
func (b *Board) Merge(cells []Cell) {
	for _, c := range cells {
		b[c.Y] |= 1 << uint(c.X)
	}
}

// ClearFullRows удаляет полностью заполненные строки, сохраняя относительный
// порядок остальных, и добавляет сверху столько же пустых строк, чтобы высота
// поля осталась неизменной. Возвращает число удаленных строк (0..BoardHeight).
func (b *Board) ClearFullRows() uint32 {
	kept := make([]uint32, 0, BoardHeight)
	var cleared uint32

	for _, row := range b {
		if row == fullRowMask {
			cleared++
		} else {
			kept = append(kept, row)
		}
	}

	if cleared == 0 {
		return 0
	}

	var compacted Board
	copy(compacted[BoardHeight-len(kept):], kept)
	*b = compacted

	return cleared
}
