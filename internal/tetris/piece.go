package tetris

// Shape — тип тетромино. Семь фигур классического набора.
type Shape int32

const (
	ShapeI Shape = iota
	ShapeJ
	ShapeL
	ShapeO
	ShapeS
	ShapeT
	ShapeZ
)

// ShapeCount — размер алфавита фигур.
const ShapeCount = 7

// String возвращает буквенное обозначение фигуры (для логов и событий).
func (s Shape) String() string {
	switch s {
	case ShapeI:
		return "I"
	case ShapeJ:
		return "J"
	case ShapeL:
		return "L"
	case ShapeO:
		return "O"
	case ShapeS:
		return "S"
	case ShapeT:
		return "T"
	case ShapeZ:
		return "Z"
	default:
		return "?"
	}
}

// Valid сообщает, входит ли значение в алфавит из семи фигур.
func (s Shape) Valid() bool {
	return s >= ShapeI && s <= ShapeZ
}

// Offset — смещение клетки фигуры относительно опорной точки (pivot).
type Offset struct {
	DX int32
	DY int32
}

// Piece — падающая фигура: форма, позиция опорной точки и поворот.
type Piece struct {
	Shape    Shape  `json:"shape" bson:"shape"`
	X        int32  `json:"x" bson:"x"`
	Y        int32  `json:"y" bson:"y"`
	Rotation uint32 `json:"rotation" bson:"rotation"` // 0..3
}

// spawnX — каноническая колонка появления новой фигуры (примерно середина поля).
const spawnX = 3

// SpawnPiece создает фигуру в точке появления: колонка spawnX, строка 0, поворот 0.
func SpawnPiece(shape Shape) Piece {
	return Piece{Shape: shape, X: spawnX, Y: 0, Rotation: 0}
}

// Cells возвращает абсолютные координаты четырех клеток фигуры.
func (p Piece) Cells() [4]Cell {
	var cells [4]Cell
	for i, off := range PieceCoords(p.Shape, p.Rotation) {
		cells[i] = Cell{X: p.X + off.DX, Y: p.Y + off.DY}
	}
	return cells
}

// pieceTable задает четыре клетки каждой фигуры для каждого из четырех
// поворотов. Таблица фиксированная: никаких матриц поворота и никаких
// wall-kick смещений при неудачном повороте. O одинакова во всех поворотах,
// S и Z имеют по два различных состояния.
var pieceTable = [ShapeCount][4][4]Offset{
	ShapeI: {
		{{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
		{{1, -1}, {1, 0}, {1, 1}, {1, 2}},
		{{-1, 1}, {0, 1}, {1, 1}, {2, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {0, 2}},
	},
	ShapeJ: {
		{{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {-1, 1}},
		{{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
		{{1, -1}, {0, 0}, {0, -1}, {0, 1}},
	},
	ShapeL: {
		{{-1, 0}, {0, 0}, {1, 0}, {-1, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 1}},
		{{1, -1}, {-1, 0}, {0, 0}, {1, 0}},
		{{-1, -1}, {0, -1}, {0, 0}, {0, 1}},
	},
	ShapeO: {
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	},
	ShapeS: {
		{{0, 0}, {1, 0}, {-1, 1}, {0, 1}},
		{{0, -1}, {0, 0}, {1, 0}, {1, 1}},
		{{0, 0}, {1, 0}, {-1, 1}, {0, 1}},
		{{0, -1}, {0, 0}, {1, 0}, {1, 1}},
	},
	ShapeT: {
		{{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {-1, 0}},
		{{-1, 0}, {0, 0}, {1, 0}, {0, -1}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 0}},
	},
	ShapeZ: {
		{{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
		{{1, -1}, {1, 0}, {0, 0}, {0, 1}},
		{{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
		{{1, -1}, {1, 0}, {0, 0}, {0, 1}},
	},
}

// PieceCoords возвращает смещения клеток фигуры shape в повороте rotation.
// Функция тотальна и периодична: поворот берется по модулю 4.
func PieceCoords(shape Shape, rotation uint32) [4]Offset {
	return pieceTable[shape][rotation%4]
}
