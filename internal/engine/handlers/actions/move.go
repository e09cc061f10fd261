package actions

import (
	"fmt"

	"isekai-server/internal/domain"
	"isekai-server/internal/engine/handlers"
	"isekai-server/internal/systems"
	"isekai-server/internal/world"
	"isekai-server/pkg/api"
)

func HandleMove(ctx handlers.Context, p api.MovePayload) (handlers.Result, error) {
	proposed := domain.Position{X: *p.X, Y: *p.Y}

	var res systems.MovementResult
	err := ctx.Game.World().Update(func(tx *world.Tx) error {
		player, ok := tx.Player(ctx.Actor)
		if !ok {
			return world.ErrPlayerNotFound
		}
		res = systems.ValidateMove(player.Pos, proposed, domain.MaxMoveDistance)
		if res.Accepted {
			player.Pos = res.Pos
		}
		return nil
	})
	if err != nil {
		return handlers.EmptyResult(), err
	}

	if !res.Accepted {
		ctx.Game.SendTo(ctx.Actor, api.CorrectPositionMessage{
			Type: api.MsgCorrectPosition,
			X:    res.Pos.X,
			Y:    res.Pos.Y,
		})
		return handlers.Result{
			Msg:     fmt.Sprintf("Move rejected: %.1f > %.1f", res.Distance, domain.MaxMoveDistance),
			MsgType: "REJECT",
		}, nil
	}

	ctx.Game.Broadcast(api.UpdateMessage{
		Type: api.MsgUpdate,
		ID:   ctx.Actor.String(),
		X:    res.Pos.X,
		Y:    res.Pos.Y,
	}, ctx.Actor)
	return handlers.EmptyResult(), nil
}
