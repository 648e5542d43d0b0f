package tetris

import (
	"math/rand"
	"sync"
)

// PieceGenerator — внешний источник следующих фигур. Движок сам не содержит
// случайности: генератор внедряется снаружи, что позволяет подменять его
// детерминированной последовательностью в тестах.
type PieceGenerator interface {
	// Next возвращает следующую фигуру из семибуквенного алфавита.
	Next() Shape
}

// RandomGenerator выдает фигуры равномерно случайно, независимо между
// вызовами. Безопасен для вызова из нескольких горутин.
type RandomGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomGenerator создает генератор с указанным seed.
func NewRandomGenerator(seed int64) *RandomGenerator {
	return &RandomGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Next возвращает случайную фигуру.
func (g *RandomGenerator) Next() Shape {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Shape(g.rng.Intn(ShapeCount))
}

// FixedGenerator циклически выдает заранее заданную последовательность фигур.
// Используется в тестах для детерминированных сценариев.
type FixedGenerator struct {
	mu  sync.Mutex
	seq []Shape
	idx int
}

// NewFixedGenerator создает генератор фиксированной последовательности.
// Последовательность не должна быть пустой.
func NewFixedGenerator(seq ...Shape) *FixedGenerator {
	if len(seq) == 0 {
		seq = []Shape{ShapeO}
	}
	return &FixedGenerator{seq: seq}
}

// Next возвращает следующую фигуру последовательности, зацикливаясь по кругу.
func (g *FixedGenerator) Next() Shape {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.seq[g.idx%len(g.seq)]
	g.idx++
	return s
}
