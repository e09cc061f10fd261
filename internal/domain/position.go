package domain

import "math"

// Position - точка в мировых координатах
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo евклидово расстояние
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Shift возвращает смещенную позицию (исходная не меняется)
func (p Position) Shift(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// IsFinite - обе координаты конечны (не NaN и не Inf)
func (p Position) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
