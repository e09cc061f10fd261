package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"isekai-server/internal/domain"
)

func TestApplyXP_MultipleLevels(t *testing.T) {
	p := domain.NewPlayer("p1", domain.ClassMage, domain.Position{})
	p.XP = 80
	baseMax := p.MaxHP
	p.HP = 1

	levels := ApplyXP(p, 250)

	assert.Equal(t, 3, levels)
	assert.Equal(t, 4, p.Level)
	assert.Equal(t, 30, p.XP)
	assert.Equal(t, baseMax+3*domain.HPPerLevel, p.MaxHP)
	assert.Equal(t, p.MaxHP, p.HP, "level-up heals fully")
}

func TestApplyXP_BelowThreshold(t *testing.T) {
	p := domain.NewPlayer("p1", domain.ClassWarrior, domain.Position{})
	p.HP = 10

	assert.Equal(t, 0, ApplyXP(p, 99))
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 99, p.XP)
	assert.Equal(t, 10, p.HP, "no heal without level-up")

	assert.Equal(t, 1, ApplyXP(p, 1))
	assert.Equal(t, 0, p.XP)
}

func TestApplyXP_IgnoresNonPositive(t *testing.T) {
	p := domain.NewPlayer("p1", domain.ClassWarrior, domain.Position{})
	assert.Equal(t, 0, ApplyXP(p, -50))
	assert.Equal(t, 0, p.XP)
}

func TestGrantXP_EnqueuesSave(t *testing.T) {
	q := newRecordingQueue()
	pr := NewProgression(q)
	p := domain.NewPlayer("p1", domain.ClassRogue, domain.Position{})

	pr.GrantXP(p, 120)

	assert.Equal(t, 1, q.count("p1"))
	assert.Equal(t, 2, q.saves["p1"][0].Level)
	assert.Equal(t, 20, q.saves["p1"][0].XP)
}
