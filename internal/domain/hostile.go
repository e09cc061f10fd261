package domain

import "strings"

// HostileID - идентификатор врага, уникален в пределах реестра
type HostileID string

func (id HostileID) String() string { return string(id) }

// HostileType - тип врага (тир)
type HostileType uint8

const (
	HostileSlime HostileType = iota
	HostileGoblin
	HostileOgre
	HostileDemonSlime
	HostileOrc
)

// KillCategory - категория убийства для квестов
type KillCategory string

const (
	KillNone       KillCategory = ""
	KillSlime      KillCategory = "SLIME_KILL"
	KillGoblin     KillCategory = "GOBLIN_KILL"
	KillOgre       KillCategory = "OGRE_KILL"
	KillDemonSlime KillCategory = "DEMON_SLIME_KILL"
	KillOrc        KillCategory = "ORC_KILL"
)

// HostileTemplate - базовые параметры типа на уровне 1
type HostileTemplate struct {
	Name     string
	HP       int
	Attack   int
	XP       int
	Speed    float64
	Size     int
	Growth   float64 // коэффициент роста HP с уровнем
	Category KillCategory
}

var hostileTemplates = map[HostileType]HostileTemplate{
	HostileSlime:      {Name: "slime", HP: 25, Attack: 5, XP: 35, Speed: 2.0, Size: 32, Growth: 1.0, Category: KillSlime},
	HostileGoblin:     {Name: "goblin", HP: 40, Attack: 12, XP: 80, Speed: 2.5, Size: 40, Growth: 1.2, Category: KillGoblin},
	HostileOgre:       {Name: "ogre", HP: 120, Attack: 20, XP: 200, Speed: 1.2, Size: 64, Growth: 1.4, Category: KillOgre},
	HostileDemonSlime: {Name: "demon_slime", HP: 60, Attack: 18, XP: 150, Speed: 2.8, Size: 48, Growth: 1.3, Category: KillDemonSlime},
	HostileOrc:        {Name: "orc", HP: 80, Attack: 22, XP: 180, Speed: 2.2, Size: 56, Growth: 1.35, Category: KillOrc},
}

// ParseHostileType разбирает имя типа из конфига
func ParseHostileType(s string) (HostileType, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, tpl := range hostileTemplates {
		if tpl.Name == name {
			return t, true
		}
	}
	return HostileSlime, false
}

// Template возвращает шаблон типа (слизень для неизвестных)
func (t HostileType) Template() HostileTemplate {
	if tpl, ok := hostileTemplates[t]; ok {
		return tpl
	}
	return hostileTemplates[HostileSlime]
}

func (t HostileType) String() string { return t.Template().Name }

// HostileStats - характеристики с учетом уровня
type HostileStats struct {
	HP     int
	Attack int
	XP     int
	Speed  float64
	Size   int
}

// ScaledStats: HP растет сверхлинейно через коэффициент типа, скорость - слабо.
func (t HostileType) ScaledStats(level int) HostileStats {
	tpl := t.Template()
	return HostileStats{
		HP:     int(float64(tpl.HP) * (1 + tpl.Growth*float64(level-1)*0.2)),
		Attack: tpl.Attack + level*2,
		XP:     tpl.XP + level*15,
		Speed:  tpl.Speed * (1 + float64(level)*0.05),
		Size:   tpl.Size,
	}
}

// HostileEntity - враг под управлением сервера
type HostileEntity struct {
	ID     HostileID
	Type   HostileType
	Level  int
	HP     int
	MaxHP  int
	Attack int
	XP     int
	Speed  float64
	Size   int
	Pos    Position
}

// NewHostile собирает врага по типу и уровню
func NewHostile(id HostileID, t HostileType, level int, pos Position) *HostileEntity {
	st := t.ScaledStats(level)
	return &HostileEntity{
		ID:     id,
		Type:   t,
		Level:  level,
		HP:     st.HP,
		MaxHP:  st.HP,
		Attack: st.Attack,
		XP:     st.XP,
		Speed:  st.Speed,
		Size:   st.Size,
		Pos:    pos,
	}
}

// TakeDamage наносит урон. Возвращает true, если враг погиб.
// HP не уходит ниже нуля.
func (h *HostileEntity) TakeDamage(amount int) bool {
	if h.HP <= 0 {
		return false
	}
	if amount < 0 {
		amount = 0
	}
	h.HP -= amount
	if h.HP <= 0 {
		h.HP = 0
		return true
	}
	return false
}

// KillCategory категория убийства этого врага
func (h *HostileEntity) KillCategory() KillCategory {
	return h.Type.Template().Category
}
