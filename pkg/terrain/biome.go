// Package terrain - детерминированный оракул местности.
// Ничего не хранит: биом и проходимость считаются из координат,
// поэтому клиент и сервер получают одинаковый результат без синхронизации.
package terrain

import "math"

// TileSize размер тайла в мировых координатах.
const TileSize = 64

// Biome классификация точки мира.
type Biome uint8

const (
	Water Biome = iota
	Sand
	Grass
)

func (b Biome) String() string {
	switch b {
	case Water:
		return "water"
	case Sand:
		return "sand"
	case Grass:
		return "grass"
	}
	return "unknown"
}

// Пороги высоты
const (
	waterLevel = -0.5
	sandLevel  = -0.2
	// Масштаб синусоид
	heightScale = 0.005
	// Доля тайлов травы, занятых препятствиями (деревья)
	obstaclePercent = 15
)

// Height возвращает гладкое периодическое поле высоты.
func Height(x, y float64) float64 {
	sx, sy := x*heightScale, y*heightScale
	return math.Sin(sx) + math.Cos(sy) + 0.5*math.Sin(sx*3)
}

// Classify возвращает биом для точки.
func Classify(x, y float64) Biome {
	h := Height(x, y)
	switch {
	case h < waterLevel:
		return Water
	case h < sandLevel:
		return Sand
	default:
		return Grass
	}
}

// Traversable - можно ли стоять в точке.
// Вода непроходима; кроме того, часть травяных тайлов занята препятствием,
// выбранным по хешу (колонка, строка) тайла.
func Traversable(x, y float64) bool {
	if Classify(x, y) == Water {
		return false
	}
	col, row := TileOf(x, y)
	if tileHash(col, row) < obstaclePercent {
		cx := (float64(col) + 0.5) * TileSize
		cy := (float64(row) + 0.5) * TileSize
		if Classify(cx, cy) == Grass {
			return false
		}
	}
	return true
}

// TileOf возвращает дискретный тайл, содержащий точку (floor-деление, корректно для отрицательных).
func TileOf(x, y float64) (col, row int64) {
	return int64(math.Floor(x / TileSize)), int64(math.Floor(y / TileSize))
}

// tileHash - фиксированное целочисленное перемешивание, результат в [0, 100).
func tileHash(col, row int64) int64 {
	seed := (col * 73856093) ^ (row * 19349663)
	m := seed % 100
	if m < 0 {
		m += 100
	}
	return m
}
