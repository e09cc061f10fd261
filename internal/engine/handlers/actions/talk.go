package actions

import (
	"fmt"

	"isekai-server/internal/domain"
	"isekai-server/internal/engine/handlers"
	"isekai-server/internal/world"
	"isekai-server/pkg/api"
)

// HandleTalk - разговор с ближайшим (первым в радиусе) NPC. Ответ только спросившему,
// диалог зависит от активного квеста.
func HandleTalk(ctx handlers.Context) (handlers.Result, error) {
	player, ok := ctx.Game.World().Player(ctx.Actor)
	if !ok {
		return handlers.EmptyResult(), world.ErrPlayerNotFound
	}

	npc, found := nearbyNPC(ctx.Game.NPCs(), player.Pos)
	if !found {
		return handlers.Result{Msg: "No NPC nearby", MsgType: "INFO"}, nil
	}

	var questID string
	if q, active := ctx.Game.Quests().Active(ctx.Actor); active {
		questID = q.ID
	}
	dialogueID := npc.DialogueFor(questID)

	ctx.Game.SendTo(ctx.Actor, api.DialogueMessage{
		Type:       api.MsgDialogue,
		NPCID:      npc.ID,
		NPCName:    npc.Name,
		DialogueID: dialogueID,
	})

	return handlers.Result{
		Msg:     fmt.Sprintf("Talks to %s (%s)", npc.Name, dialogueID),
		MsgType: "SPEECH",
	}, nil
}

// nearbyNPC - граница радиуса включительно
func nearbyNPC(npcs []domain.NPC, pos domain.Position) (domain.NPC, bool) {
	for _, n := range npcs {
		if pos.DistanceTo(n.Pos) <= domain.NPCInteractRadius {
			return n, true
		}
	}
	return domain.NPC{}, false
}
