package view

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isekai-server/internal/domain"
	"isekai-server/internal/systems"
)

func TestPlayer_WireShape(t *testing.T) {
	p := domain.NewPlayer("p1", domain.ClassMage, domain.Position{X: 1200, Y: 1200})
	data, err := json.Marshal(Player(*p))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1200,"y":1200,"class":"mage","hp":70,"max_hp":70,"lvl":1,"xp":0}`, string(data))
}

func TestCombatResult_Miss(t *testing.T) {
	res := CombatResult("p1", systems.CombatOutcome{Result: systems.ResultMiss})
	assert.Equal(t, "miss", res.Result)
	assert.Equal(t, MissReason, res.Reason)
	assert.Nil(t, res.EnemyHP)
}

func TestCombatResult_Kill(t *testing.T) {
	res := CombatResult("p1", systems.CombatOutcome{
		Result:     systems.ResultKill,
		TargetID:   "h1",
		TargetType: domain.HostileGoblin,
		Damage:     22,
		XPGained:   95,
		Category:   domain.KillGoblin,
		NewLevel:   2,
	})
	require.NotNil(t, res.EnemyHP)
	assert.Equal(t, 0, *res.EnemyHP)
	assert.Equal(t, "goblin", res.EnemyType)
	assert.Equal(t, "GOBLIN_KILL", res.NotifyType)
	assert.Equal(t, 95, res.XPGained)
}

func TestSkillResult_EventFields(t *testing.T) {
	res := SkillResult(systems.AbilityOutcome{
		Name: "HealLight",
		Events: []systems.AbilityEvent{
			{Type: systems.EventHeal, TargetID: "p1", Magnitude: 48},
			{Type: systems.EventAoeHit, TargetID: "h1", Magnitude: 28},
			{Type: systems.EventMiss},
		},
	})
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"skill":"HealLight","events":[
		{"type":"heal","target":"p1","amount":48},
		{"type":"aoe_hit","mob":"h1","damage":28},
		{"type":"miss"}]}`, string(data))
}

func TestHostiles_KeyedByID(t *testing.T) {
	h := domain.NewHostile("h9", domain.HostileSlime, 1, domain.Position{X: 1, Y: 2})
	state := Hostiles([]domain.HostileEntity{*h})
	require.Contains(t, state, "h9")
	assert.Equal(t, "slime", state["h9"].Type)
	assert.Equal(t, 25, state["h9"].HP)
}
