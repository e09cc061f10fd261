package domain

// Ability - способность. У каждой своя форма эффекта.
type Ability uint8

const (
	AbilityUnknown     Ability = iota
	AbilityPowerStrike         // одиночный тяжелый удар
	AbilityFireball            // удар по площади
	AbilityHealLight           // самолечение
	AbilityShadowStep          // рывок к цели с ударом
	AbilityWindSlash           // удар по линии
)

var abilityToString = map[Ability]string{
	AbilityPowerStrike: "PowerStrike",
	AbilityFireball:    "Fireball",
	AbilityHealLight:   "HealLight",
	AbilityShadowStep:  "ShadowStep",
	AbilityWindSlash:   "WindSlash",
}

var abilityStringToAbility = map[string]Ability{
	"PowerStrike": AbilityPowerStrike,
	"Fireball":    AbilityFireball,
	"HealLight":   AbilityHealLight,
	"ShadowStep":  AbilityShadowStep,
	"WindSlash":   AbilityWindSlash,
}

// ParseAbility - имена чувствительны к регистру, как их шлет клиент
func ParseAbility(s string) Ability {
	if a, ok := abilityStringToAbility[s]; ok {
		return a
	}
	return AbilityUnknown
}

func (a Ability) String() string {
	if s, ok := abilityToString[a]; ok {
		return s
	}
	return "Unknown"
}

// DefaultAbility - способность класса по умолчанию (один к одному)
func DefaultAbility(c Class) Ability {
	switch c {
	case ClassWarrior:
		return AbilityPowerStrike
	case ClassMage:
		return AbilityFireball
	case ClassPaladin:
		return AbilityHealLight
	case ClassRogue:
		return AbilityShadowStep
	case ClassNinja:
		return AbilityWindSlash
	default:
		return AbilityPowerStrike
	}
}
