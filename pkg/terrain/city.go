package terrain

// Rect - прямоугольная область мира (границы включительно).
type Rect struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Contains проверяет попадание точки (включая границу).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX() && x <= r.MaxX() && y >= r.MinY() && y <= r.MaxY()
}

// Center центр прямоугольника.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// City - безопасная зона (замок). Здесь появляются игроки, враги не спавнятся.
var City = Rect{X: 900, Y: 900, W: 600, H: 600}

// InsideCity - точка внутри безопасной зоны.
func InsideCity(x, y float64) bool {
	return City.Contains(x, y)
}

// CitySpawn точка появления игрока.
func CitySpawn() (float64, float64) {
	return City.Center()
}
