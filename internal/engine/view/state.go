// Package view собирает DTO для клиента из доменных снимков.
package view

import (
	"isekai-server/internal/domain"
	"isekai-server/internal/systems"
	"isekai-server/pkg/api"
)

// MissReason - текст промаха ближней атаки
const MissReason = "No enemy nearby."

func Player(p domain.PlayerEntity) api.PlayerView {
	return api.PlayerView{
		X:     p.Pos.X,
		Y:     p.Pos.Y,
		Class: p.Class.String(),
		HP:    p.HP,
		MaxHP: p.MaxHP,
		Level: p.Level,
		XP:    p.XP,
	}
}

func Players(ps []domain.PlayerEntity) api.PlayersState {
	out := make(api.PlayersState, len(ps))
	for _, p := range ps {
		out[p.ID.String()] = Player(p)
	}
	return out
}

func Hostile(h domain.HostileEntity) api.HostileView {
	return api.HostileView{
		Type:   h.Type.String(),
		X:      h.Pos.X,
		Y:      h.Pos.Y,
		HP:     h.HP,
		MaxHP:  h.MaxHP,
		Attack: h.Attack,
		XP:     h.XP,
		Speed:  h.Speed,
		Level:  h.Level,
		Size:   h.Size,
	}
}

func Hostiles(hs []domain.HostileEntity) api.HostilesState {
	out := make(api.HostilesState, len(hs))
	for _, h := range hs {
		out[h.ID.String()] = Hostile(h)
	}
	return out
}

func NPCs(npcs []domain.NPC) api.NPCsState {
	out := make(api.NPCsState, len(npcs))
	dialogues := domain.DialogueIDs()
	for _, n := range npcs {
		out[n.ID] = api.NPCView{Name: n.Name, X: n.Pos.X, Y: n.Pos.Y, Dialogue: n.DialogueID, Dialogues: dialogues}
	}
	return out
}

func Quest(q domain.QuestRecord) api.QuestView {
	return api.QuestView{
		ID:          q.ID,
		Name:        q.Name,
		Description: q.Description,
		Objective:   q.Objective,
		Category:    string(q.Category),
		Required:    q.Required,
		Progress:    q.Progress,
		RewardXP:    q.RewardXP,
	}
}

// CombatResult переводит исход ближней атаки в формат провода
func CombatResult(attacker domain.PlayerID, out systems.CombatOutcome) api.CombatResult {
	if out.Result == systems.ResultMiss {
		return api.CombatResult{Result: string(systems.ResultMiss), Reason: MissReason}
	}

	hp := out.TargetHP
	res := api.CombatResult{
		Result:     string(out.Result),
		Attacker:   attacker.String(),
		EnemyID:    out.TargetID.String(),
		Damage:     out.Damage,
		EnemyHP:    &hp,
		EnemyMaxHP: out.TargetMaxHP,
		EnemyType:  out.TargetType.String(),
	}
	if out.Result == systems.ResultKill {
		res.XP = out.XPGained
		res.XPGained = out.XPGained
		res.NotifyType = string(out.Category)
		res.NewLevel = out.NewLevel
	}
	return res
}

// SkillResult - имя способности и упорядоченные события
func SkillResult(out systems.AbilityOutcome) api.SkillResult {
	events := make([]api.SkillEvent, 0, len(out.Events))
	for _, ev := range out.Events {
		e := api.SkillEvent{Type: ev.Type}
		switch ev.Type {
		case systems.EventHeal:
			e.Target = ev.TargetID
			e.Amount = ev.Magnitude
		case systems.EventMiss:
		default:
			e.Mob = ev.TargetID
			e.Damage = ev.Magnitude
		}
		events = append(events, e)
	}
	return api.SkillResult{Skill: out.Name, Events: events}
}
