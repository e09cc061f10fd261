package domain

import "isekai-server/pkg/terrain"

// SpawnZone - прямоугольная область спавна. Неизменяема после старта.
// Зоны могут пересекаться. Пустой Types означает "здесь никто не спавнится".
type SpawnZone struct {
	Name     string
	Area     terrain.Rect
	Types    []HostileType
	MinLevel int
	MaxLevel int
}

// Contains проверяет попадание точки в зону
func (z SpawnZone) Contains(p Position) bool {
	return z.Area.Contains(p.X, p.Y)
}

// DefaultZones - карта мира вокруг города
func DefaultZones() []SpawnZone {
	c := terrain.City
	return []SpawnZone{
		{
			Name:     "Castle",
			Area:     c,
			Types:    nil,
			MinLevel: 1,
			MaxLevel: 1,
		},
		{
			Name:     "Grasslands",
			Area:     terrain.Rect{X: c.X - 300, Y: c.Y - 300, W: c.W + 600, H: c.H + 600},
			Types:    []HostileType{HostileSlime, HostileGoblin},
			MinLevel: 1,
			MaxLevel: 5,
		},
		{
			Name:     "Eastern Plains",
			Area:     terrain.Rect{X: c.MaxX() + 300, Y: c.Y, W: 600, H: c.H},
			Types:    []HostileType{HostileGoblin, HostileDemonSlime},
			MinLevel: 4,
			MaxLevel: 12,
		},
		{
			Name:     "Southern Ruins",
			Area:     terrain.Rect{X: c.X - 300, Y: c.MaxY() + 300, W: c.W + 300, H: 600},
			Types:    []HostileType{HostileOgre, HostileOrc},
			MinLevel: 8,
			MaxLevel: 20,
		},
	}
}
