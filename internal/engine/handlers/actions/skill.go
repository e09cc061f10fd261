package actions

import (
	"fmt"

	"isekai-server/internal/engine/handlers"
	"isekai-server/internal/engine/view"
	"isekai-server/pkg/api"
)

func HandleSkill(ctx handlers.Context, p api.SkillPayload) (handlers.Result, error) {
	out, err := ctx.Game.Combat().UseAbility(ctx.Actor, p.Skill)
	if err != nil {
		return handlers.EmptyResult(), err
	}

	// Убийства способностями тоже двигают квест
	for _, kill := range out.Kills {
		advanceQuest(ctx, kill.Category)
	}

	world := ctx.Game.World()
	ctx.Game.Broadcast(api.SkillFXMessage{
		Type:     api.MsgSkillFX,
		Attacker: ctx.Actor.String(),
		Skill:    out.Name,
		Result:   view.SkillResult(out),
		Mobs:     view.Hostiles(world.SnapshotHostiles()),
		Players:  view.Players(world.SnapshotPlayers()),
	}, "")

	return handlers.Result{
		Msg:     fmt.Sprintf("%s: %d events, %d kills", out.Name, len(out.Events), len(out.Kills)),
		MsgType: "COMBAT",
	}, nil
}
