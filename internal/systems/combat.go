package systems

import (
	"errors"

	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/internal/world"
	"isekai-server/pkg/logger"
	"isekai-server/pkg/utils"
)

var ErrAttackerNotFound = errors.New("attacker not found")

// OutcomeResult итог ближней атаки
type OutcomeResult string

const (
	ResultMiss OutcomeResult = "miss"
	ResultHit  OutcomeResult = "hit"
	ResultKill OutcomeResult = "kill"
)

// Kill - факт убийства врага (для квестов и логов)
type Kill struct {
	HostileID domain.HostileID
	Type      domain.HostileType
	Category  domain.KillCategory
	XP        int
}

// CombatOutcome - результат ближней атаки
type CombatOutcome struct {
	Result      OutcomeResult
	TargetID    domain.HostileID
	TargetType  domain.HostileType
	Damage      int
	TargetHP    int
	TargetMaxHP int
	// Заполняются только при убийстве
	XPGained int
	Category domain.KillCategory
	NewLevel int
	// Attacker - снимок атакующего после разрешения боя
	Attacker domain.PlayerEntity
}

// Resolver разрешает бой над реестром. Каждая атака - одна транзакция реестра,
// поэтому урон, смерть, удаление, респаун и опыт видны другим сессиям атомарно.
type Resolver struct {
	registry    *world.Registry
	spawner     *world.Spawner
	progression *Progression
	rng         utils.Random
}

func NewResolver(registry *world.Registry, spawner *world.Spawner, progression *Progression, rng utils.Random) *Resolver {
	return &Resolver{
		registry:    registry,
		spawner:     spawner,
		progression: progression,
		rng:         rng,
	}
}

// MeleeAttack бьет первого по порядку реестра врага в радиусе атаки.
func (c *Resolver) MeleeAttack(attackerID domain.PlayerID) (CombatOutcome, error) {
	var out CombatOutcome

	err := c.registry.Update(func(tx *world.Tx) error {
		attacker, ok := tx.Player(attackerID)
		if !ok {
			return ErrAttackerNotFound
		}

		target, found := tx.FirstHostileInRange(attacker.Pos, domain.AttackRange)
		if !found {
			out = CombatOutcome{Result: ResultMiss, Attacker: *attacker}
			return nil
		}

		damage := utils.IntRange(c.rng, domain.BaseAttackMin, domain.BaseAttackMax) +
			attacker.Level*domain.LevelDamageBonus
		died := target.TakeDamage(damage)

		out = CombatOutcome{
			Result:      ResultHit,
			TargetID:    target.ID,
			TargetType:  target.Type,
			Damage:      damage,
			TargetHP:    target.HP,
			TargetMaxHP: target.MaxHP,
		}

		if died {
			kill := c.killTx(tx, attacker, target)
			out.Result = ResultKill
			out.XPGained = kill.XP
			out.Category = kill.Category
			out.NewLevel = attacker.Level
		}

		out.Attacker = *attacker
		return nil
	})
	if err != nil {
		return CombatOutcome{}, err
	}

	logger.Log.WithFields(logrus.Fields{
		"component":   "combat_system",
		"attacker_id": attackerID,
		"target_id":   out.TargetID,
		"result":      out.Result,
		"damage":      out.Damage,
		"target_hp":   out.TargetHP,
	}).Debug("Melee attack resolved.")

	return out, nil
}

// killTx - общая для ближнего боя и способностей последовательность смерти:
// удалить врага, заспавнить замену, начислить опыт убийце.
func (c *Resolver) killTx(tx *world.Tx, killer *domain.PlayerEntity, target *domain.HostileEntity) Kill {
	kill := Kill{
		HostileID: target.ID,
		Type:      target.Type,
		Category:  target.KillCategory(),
		XP:        target.XP,
	}

	tx.DeleteHostile(target.ID)
	if c.spawner != nil {
		c.spawner.ReplenishTx(tx)
	}
	levels := c.progression.GrantXP(killer, target.XP)

	logger.Log.WithFields(logrus.Fields{
		"component":  "combat_system",
		"killer_id":  killer.ID,
		"hostile_id": target.ID,
		"type":       target.Type.String(),
		"xp":         target.XP,
		"levels":     levels,
	}).Info("Hostile killed.")

	return kill
}
