package domain

// Прогрессия
const (
	// XPPerLevel порог опыта (одинаковый на каждом уровне)
	XPPerLevel = 100
	// HPPerLevel прибавка к MaxHP за уровень
	HPPerLevel = 20
)

// Движение
const (
	// MaxMoveDistance максимальное смещение за одно сообщение MOVE (античит)
	MaxMoveDistance = 10.0
)

// Ближний бой
const (
	AttackRange      = 80.0
	BaseAttackMin    = 10
	BaseAttackMax    = 20
	LevelDamageBonus = 5
)

// Радиусы способностей
const (
	WarriorSkillRange = 100.0
	MageSkillRange    = 140.0
	RogueSkillRange   = 120.0
	NinjaSkillRange   = 220.0
	// Полуширина коридора WindSlash
	NinjaSlashHalfWidth = 40.0
)

// Взаимодействие с NPC
const (
	NPCInteractRadius = 80.0
)

// Спавн
const (
	// SpawnAttempts число попыток найти безопасную точку в зоне
	SpawnAttempts = 120
	// InitialHostileCount популяция врагов при старте
	InitialHostileCount = 75
)
