package tetris

import "fmt"

// Snapshot — полное сериализуемое состояние партии. Именно в таком виде
// партия сохраняется во внешнем хранилище и отдается клиентам API.
// Строка 0 — верх стакана; бит i строки — занятость колонки i.
type Snapshot struct {
	Board        Board  `json:"board" bson:"board"`
	CurrentPiece Piece  `json:"current_piece" bson:"current_piece"`
	NextPiece    Piece  `json:"next_piece" bson:"next_piece"`
	Score        uint32 `json:"score" bson:"score"`
	Level        uint32 `json:"level" bson:"level"`
	LinesCleared uint32 `json:"lines_cleared" bson:"lines_cleared"`
	GameOver     bool   `json:"game_over" bson:"game_over"`
}

// ValidateSnapshot проверяет инварианты загруженного снапшота.
// Испорченный снапшот (лишние биты в строках, поворот >= 4, неизвестная
// фигура) — это нарушение программного инварианта, которое должно быть
// отловлено на границе загрузки, а не глубоко внутри движка.
func ValidateSnapshot(snap *Snapshot) error {
	for i, row := range snap.Board {
		if row > fullRowMask {
			return fmt.Errorf("строка %d содержит биты выше колонки %d: маска %#x", i, BoardWidth-1, row)
		}
	}
	for _, p := range [2]Piece{snap.CurrentPiece, snap.NextPiece} {
		if !p.Shape.Valid() {
			return fmt.Errorf("неизвестная фигура: %d", int32(p.Shape))
		}
		if p.Rotation > 3 {
			return fmt.Errorf("недопустимый поворот: %d", p.Rotation)
		}
	}
	if snap.Level < 1 {
		return fmt.Errorf("недопустимый уровень: %d (минимум 1)", snap.Level)
	}
	return nil
}
