package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/internal/world"
	"isekai-server/pkg/logger"
	"isekai-server/pkg/utils"
)

// Типы событий способностей (их анимирует клиент)
const (
	EventHit      = "hit"
	EventAoeHit   = "aoe_hit"
	EventHeal     = "heal"
	EventStepHit  = "step_hit"
	EventSlashHit = "slash_hit"
	EventMiss     = "miss"
)

// Смещение заклинателя относительно цели после ShadowStep
const (
	shadowStepOffsetX = -20
	shadowStepOffsetY = 5
)

// AbilityEvent одно событие по цели
type AbilityEvent struct {
	Type      string
	TargetID  string // враг или сам заклинатель (heal); пусто для miss
	Magnitude int    // урон или лечение
}

// AbilityOutcome - результат применения способности
type AbilityOutcome struct {
	Ability domain.Ability
	// Name - имя как его прислал клиент (для неизвестных способностей)
	Name   string
	Events []AbilityEvent
	Kills  []Kill
	Caster domain.PlayerEntity
}

// UseAbility применяет способность. Пустое имя - способность класса.
// Неизвестное имя дает пустой список событий (неявный промах).
func (c *Resolver) UseAbility(casterID domain.PlayerID, abilityName string) (AbilityOutcome, error) {
	var out AbilityOutcome

	err := c.registry.Update(func(tx *world.Tx) error {
		caster, ok := tx.Player(casterID)
		if !ok {
			return ErrAttackerNotFound
		}

		ability := domain.DefaultAbility(caster.Class)
		name := ability.String()
		if abilityName != "" {
			ability = domain.ParseAbility(abilityName)
			name = abilityName
		}
		out = AbilityOutcome{Ability: ability, Name: name}

		switch ability {
		case domain.AbilityPowerStrike:
			c.powerStrike(tx, caster, &out)
		case domain.AbilityFireball:
			c.fireball(tx, caster, &out)
		case domain.AbilityHealLight:
			c.healLight(caster, &out)
		case domain.AbilityShadowStep:
			c.shadowStep(tx, caster, &out)
		case domain.AbilityWindSlash:
			c.windSlash(tx, caster, &out)
		case domain.AbilityUnknown:
			// нет эффекта
		}

		out.Caster = *caster
		return nil
	})
	if err != nil {
		return AbilityOutcome{}, err
	}

	logger.Log.WithFields(logrus.Fields{
		"component": "combat_system",
		"caster_id": casterID,
		"ability":   out.Name,
		"events":    len(out.Events),
		"kills":     len(out.Kills),
	}).Debug("Ability resolved.")

	return out, nil
}

// hitTx наносит урон и, если цель погибла, проводит последовательность смерти
func (c *Resolver) hitTx(tx *world.Tx, caster *domain.PlayerEntity, h *domain.HostileEntity, dmg int, event string, out *AbilityOutcome) {
	out.Events = append(out.Events, AbilityEvent{Type: event, TargetID: h.ID.String(), Magnitude: dmg})
	if h.TakeDamage(dmg) {
		out.Kills = append(out.Kills, c.killTx(tx, caster, h))
	}
}

func missIfEmpty(out *AbilityOutcome) {
	if len(out.Events) == 0 {
		out.Events = append(out.Events, AbilityEvent{Type: EventMiss})
	}
}

// PowerStrike - тяжелый одиночный удар, первая цель в радиусе
func (c *Resolver) powerStrike(tx *world.Tx, caster *domain.PlayerEntity, out *AbilityOutcome) {
	if target, ok := tx.FirstHostileInRange(caster.Pos, domain.WarriorSkillRange); ok {
		dmg := utils.IntRange(c.rng, 30, 50) + caster.Level*5
		c.hitTx(tx, caster, target, dmg, EventHit, out)
	}
	missIfEmpty(out)
}

// Fireball - все враги в радиусе, радиус растет с уровнем
func (c *Resolver) fireball(tx *world.Tx, caster *domain.PlayerEntity, out *AbilityOutcome) {
	radius := domain.MageSkillRange + float64(caster.Level*5)
	dmg := utils.IntRange(c.rng, 25, 35) + caster.Level*3

	for _, h := range tx.Hostiles() {
		if caster.Pos.DistanceTo(h.Pos) < radius {
			c.hitTx(tx, caster, h, dmg, EventAoeHit, out)
		}
	}
	missIfEmpty(out)
}

// HealLight - лечение себя, без целей
func (c *Resolver) healLight(caster *domain.PlayerEntity, out *AbilityOutcome) {
	heal := utils.IntRange(c.rng, 40, 60) + caster.Level*8
	caster.Heal(heal)
	out.Events = append(out.Events, AbilityEvent{Type: EventHeal, TargetID: caster.ID.String(), Magnitude: heal})
}

// ShadowStep - рывок к первой цели в радиусе и удар
func (c *Resolver) shadowStep(tx *world.Tx, caster *domain.PlayerEntity, out *AbilityOutcome) {
	if target, ok := tx.FirstHostileInRange(caster.Pos, domain.RogueSkillRange); ok {
		dmg := 20 + caster.Level*4
		caster.Pos = target.Pos.Shift(shadowStepOffsetX, shadowStepOffsetY)
		c.hitTx(tx, caster, target, dmg, EventStepHit, out)
	}
	missIfEmpty(out)
}

// WindSlash - узкий коридор строго вперед по X
func (c *Resolver) windSlash(tx *world.Tx, caster *domain.PlayerEntity, out *AbilityOutcome) {
	dmg := 15 + caster.Level*3
	for _, h := range tx.Hostiles() {
		dx := h.Pos.X - caster.Pos.X
		dy := math.Abs(h.Pos.Y - caster.Pos.Y)
		if dy < domain.NinjaSlashHalfWidth && dx > 0 && dx < domain.NinjaSkillRange {
			c.hitTx(tx, caster, h, dmg, EventSlashHit, out)
		}
	}
	missIfEmpty(out)
}
