package tetris

// lineScores — очки за одновременно убранные линии (индекс — число линий).
// Итоговая прибавка умножается на текущий уровень.
var lineScores = [5]uint32{0, 100, 300, 500, 800}

// linesPerLevel — порог повышения уровня: уровень растет, когда суммарное
// число убранных линий достигает level*linesPerLevel.
const linesPerLevel = 10

// Session — состояние одной партии. Движок однопоточный и синхронный:
// каждая операция выполняется до конца без точек ожидания. Сериализацию
// конкурентных вызовов по одной партии обеспечивает вызывающая сторона.
//
// После game_over все изменяющие операции становятся no-op и возвращают
// свое "неуспешное" значение, не трогая ни одного поля.
type Session struct {
	board    Board
	current  Piece
	next     Piece
	score    uint32
	level    uint32
	lines    uint32
	gameOver bool

	gen PieceGenerator
}

// NewSession создает новую партию: пустое поле, две сгенерированные фигуры,
// счет 0, уровень 1.
func NewSession(gen PieceGenerator) *Session {
	return &Session{
		current: SpawnPiece(gen.Next()),
		next:    SpawnPiece(gen.Next()),
		level:   1,
		gen:     gen,
	}
}

// Restore восстанавливает партию из снапшота, проверяя его инварианты.
// Возвращает ошибку, если снапшот испорчен (см. ValidateSnapshot).
func Restore(snap Snapshot, gen PieceGenerator) (*Session, error) {
	if err := ValidateSnapshot(&snap); err != nil {
		return nil, err
	}
	return &Session{
		board:    snap.Board,
		current:  snap.CurrentPiece,
		next:     snap.NextPiece,
		score:    snap.Score,
		level:    snap.Level,
		lines:    snap.LinesCleared,
		gameOver: snap.GameOver,
		gen:      gen,
	}, nil
}

// Snapshot возвращает полную копию текущего состояния партии.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Board:        s.board,
		CurrentPiece: s.current,
		NextPiece:    s.next,
		Score:        s.score,
		Level:        s.level,
		LinesCleared: s.lines,
		GameOver:     s.gameOver,
	}
}

// GameOver сообщает, завершена ли партия.
func (s *Session) GameOver() bool {
	return s.gameOver
}

// MoveLeft сдвигает текущую фигуру на одну колонку влево.
// Возвращает false, если сдвиг невозможен; фиксации фигуры не происходит.
func (s *Session) MoveLeft() bool {
	if s.gameOver {
		return false
	}
	return s.tryMove(-1, 0, 0)
}

// MoveRight сдвигает текущую фигуру на одну колонку вправо.
func (s *Session) MoveRight() bool {
	if s.gameOver {
		return false
	}
	return s.tryMove(1, 0, 0)
}

// Rotate поворачивает фигуру по часовой стрелке (+1 к индексу поворота).
// Неудачный поворот никогда не приводит к фиксации фигуры.
func (s *Session) Rotate() bool {
	if s.gameOver {
		return false
	}
	return s.tryMove(0, 0, 1)
}

// SoftDrop опускает фигуру на одну строку. Если опуститься нельзя,
// фигура фиксируется (см. lock) и возвращается false.
func (s *Session) SoftDrop() bool {
	if s.gameOver {
		return false
	}
	if s.tryMove(0, 1, 0) {
		return true
	}
	s.lock()
	return false
}

// HardDrop опускает фигуру до упора и фиксирует ее.
// Возвращает число пройденных строк (0 после завершения партии).
func (s *Session) HardDrop() uint32 {
	if s.gameOver {
		return 0
	}
	var dropped uint32
	for s.tryMove(0, 1, 0) {
		dropped++
	}
	s.lock()
	return dropped
}

// Tick — шаг гравитации: семантически эквивалентен SoftDrop.
// Возвращает обновленный снапшот.
func (s *Session) Tick() Snapshot {
	if s.gameOver {
		return s.Snapshot()
	}
	if !s.tryMove(0, 1, 0) {
		s.lock()
	}
	return s.Snapshot()
}

// tryMove пытается применить смещение (dx, dy) и приращение поворота dRot.
// Операция атомарна: при любой коллизии состояние не меняется и
// возвращается false.
func (s *Session) tryMove(dx, dy, dRot int32) bool {
	cand := s.current
	cand.X += dx
	cand.Y += dy
	cand.Rotation = uint32(((int32(cand.Rotation)+dRot)%4 + 4) % 4)

	if s.collides(cand) {
		return false
	}

	s.current = cand
	return true
}

// collides проверяет кандидата: выход за боковые границы или за дно поля,
// либо пересечение с занятыми клетками. Отрицательные строки допустимы —
// фигура может частично находиться над видимой частью поля.
func (s *Session) collides(p Piece) bool {
	for _, c := range p.Cells() {
		if c.X < 0 || c.X >= BoardWidth || c.Y >= BoardHeight {
			return true
		}
		if c.Y >= 0 && s.board.Occupied(c.Y, c.X) {
			return true
		}
	}
	return false
}

// lock фиксирует текущую фигуру: переносит ее клетки на поле, убирает
// заполненные линии, начисляет очки и выпускает следующую фигуру.
// Если хотя бы одна клетка осталась над видимой частью поля, партия
// заканчивается без слияния и без смены фигур (top-out).
func (s *Session) lock() {
	cells := make([]Cell, 0, 4)
	topOut := false
	for _, c := range s.current.Cells() {
		if c.Y < 0 {
			topOut = true
		} else {
			cells = append(cells, c)
		}
	}
	if topOut {
		s.gameOver = true
		return
	}

	s.board.Merge(cells)

	n := s.board.ClearFullRows()
	if n > 0 {
		s.score += lineScores[n] * s.level
		s.lines += n
		// Один lock убирает максимум четыре линии, поэтому порог уровня
		// может быть пересечен не более одного раза.
		if s.lines >= s.level*linesPerLevel {
			s.level++
		}
	}

	// Следующая фигура уже находится в канонической точке появления.
	s.current = s.next
	s.next = SpawnPiece(s.gen.Next())

	// Классический top-out при спауне: новой фигуре негде появиться.
	if s.collides(s.current) {
		s.gameOver = true
	}
}
