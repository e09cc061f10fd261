package domain

import "strings"

// Class - класс персонажа. Закрытое перечисление: новый класс требует
// записи в classStats и ветки в DefaultAbility.
type Class uint8

const (
	ClassWarrior Class = iota
	ClassMage
	ClassRogue
	ClassPaladin
	ClassNinja
)

var classToString = map[Class]string{
	ClassWarrior: "warrior",
	ClassMage:    "mage",
	ClassRogue:   "rogue",
	ClassPaladin: "paladin",
	ClassNinja:   "ninja",
}

var classStringToClass = map[string]Class{
	"warrior": ClassWarrior,
	"mage":    ClassMage,
	"rogue":   ClassRogue,
	"paladin": ClassPaladin,
	"ninja":   ClassNinja,
}

// ParseClass разбирает тег класса. ok=false для неизвестных значений.
func ParseClass(s string) (Class, bool) {
	c, ok := classStringToClass[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// ParseClassOrDefault - неизвестный или пустой тег превращается в воина.
func ParseClassOrDefault(s string) Class {
	if c, ok := ParseClass(s); ok {
		return c
	}
	return ClassWarrior
}

func (c Class) String() string {
	if s, ok := classToString[c]; ok {
		return s
	}
	return "warrior"
}

// ClassStats стартовые характеристики класса
type ClassStats struct {
	HP      int
	MP      int
	Attack  int
	Defense int
}

var classStats = map[Class]ClassStats{
	ClassWarrior: {HP: 100, MP: 30, Attack: 12, Defense: 6},
	ClassMage:    {HP: 70, MP: 80, Attack: 18, Defense: 3},
	ClassRogue:   {HP: 85, MP: 40, Attack: 15, Defense: 4},
	ClassPaladin: {HP: 110, MP: 50, Attack: 10, Defense: 8},
	ClassNinja:   {HP: 80, MP: 40, Attack: 16, Defense: 4},
}

// BaseStats возвращает таблицу характеристик класса (воин для неизвестных)
func (c Class) BaseStats() ClassStats {
	if s, ok := classStats[c]; ok {
		return s
	}
	return classStats[ClassWarrior]
}
