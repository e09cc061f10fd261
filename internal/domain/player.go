package domain

// PlayerID - короткий непрозрачный идентификатор игрока
type PlayerID string

func (id PlayerID) String() string { return string(id) }

// PlayerEntity - авторитетное состояние игрока.
// Мутирует только сессия-владелец (под блокировкой реестра), читают все.
type PlayerEntity struct {
	ID      PlayerID
	Class   Class
	Pos     Position
	Level   int
	XP      int
	HP      int
	MaxHP   int
	MP      int
	Attack  int
	Defense int
}

// NewPlayer создает игрока первого уровня со статами класса.
func NewPlayer(id PlayerID, class Class, spawn Position) *PlayerEntity {
	base := class.BaseStats()
	return &PlayerEntity{
		ID:      id,
		Class:   class,
		Pos:     spawn,
		Level:   1,
		XP:      0,
		HP:      base.HP,
		MaxHP:   base.HP,
		MP:      base.MP,
		Attack:  base.Attack,
		Defense: base.Defense,
	}
}

// PlayerSave - то, что переживает перезаход. Позиция не сохраняется:
// при входе игрок всегда появляется в городе.
type PlayerSave struct {
	Class string `json:"class"`
	Level int    `json:"lvl"`
	XP    int    `json:"xp"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
}

// ApplySave накладывает сохранение поверх стартовых статов.
func (p *PlayerEntity) ApplySave(s PlayerSave) {
	if c, ok := ParseClass(s.Class); ok {
		p.Class = c
		base := c.BaseStats()
		p.MP, p.Attack, p.Defense = base.MP, base.Attack, base.Defense
	}
	if s.Level >= 1 {
		p.Level = s.Level
	}
	if s.XP >= 0 {
		p.XP = s.XP
	}
	if s.MaxHP > 0 {
		p.MaxHP = s.MaxHP
	}
	p.HP = s.HP
	p.clampHP()
}

// Save снимает копию для хранилища.
func (p *PlayerEntity) Save() PlayerSave {
	return PlayerSave{
		Class: p.Class.String(),
		Level: p.Level,
		XP:    p.XP,
		HP:    p.HP,
		MaxHP: p.MaxHP,
	}
}

// Heal восстанавливает HP, не выше MaxHP. Возвращает фактически вылеченное.
func (p *PlayerEntity) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := p.HP
	p.HP += amount
	p.clampHP()
	return p.HP - before
}

func (p *PlayerEntity) clampHP() {
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	if p.HP < 0 {
		p.HP = 0
	}
}
