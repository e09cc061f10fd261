package actions

import (
	"fmt"

	"isekai-server/internal/engine/handlers"
	"isekai-server/internal/engine/view"
	"isekai-server/internal/systems"
	"isekai-server/pkg/api"
)

func HandleAttack(ctx handlers.Context) (handlers.Result, error) {
	out, err := ctx.Game.Combat().MeleeAttack(ctx.Actor)
	if err != nil {
		return handlers.EmptyResult(), err
	}

	attacker := out.Attacker
	if out.Result == systems.ResultKill {
		if after, ok := advanceQuest(ctx, out.Category); ok {
			attacker = after
		}
	}

	ctx.Game.Broadcast(api.CombatMessage{
		Type:     api.MsgCombat,
		Attacker: ctx.Actor.String(),
		Mobs:     view.Hostiles(ctx.Game.World().SnapshotHostiles()),
		PData:    view.Player(attacker),
		Result:   view.CombatResult(ctx.Actor, out),
	}, "")

	switch out.Result {
	case systems.ResultMiss:
		return handlers.Result{Msg: "Attack missed", MsgType: "COMBAT"}, nil
	case systems.ResultKill:
		return handlers.Result{
			Msg:     fmt.Sprintf("Killed %s %s (+%d xp)", out.TargetType, out.TargetID, out.XPGained),
			MsgType: "COMBAT",
		}, nil
	default:
		return handlers.Result{
			Msg:     fmt.Sprintf("Hit %s for %d (%d hp left)", out.TargetID, out.Damage, out.TargetHP),
			MsgType: "COMBAT",
		}, nil
	}
}
