package systems

import (
	"isekai-server/internal/domain"
)

// MovementResult - результат проверки движения
type MovementResult struct {
	Accepted bool
	// Pos - авторитетная позиция после проверки: новая, если принято, иначе прежняя
	Pos      domain.Position
	Distance float64
}

// ValidateMove проверяет предложенную клиентом позицию. Не меняет состояние мира!
// Смещение ровно на maxDistance допустимо, дальше - телепорт (или лаг) и отказ.
func ValidateMove(current, proposed domain.Position, maxDistance float64) MovementResult {
	if !proposed.IsFinite() {
		return MovementResult{Pos: current}
	}

	dist := current.DistanceTo(proposed)
	if dist > maxDistance {
		return MovementResult{Pos: current, Distance: dist}
	}

	return MovementResult{Accepted: true, Pos: proposed, Distance: dist}
}
