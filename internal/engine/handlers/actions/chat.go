package actions

import (
	"isekai-server/internal/engine/handlers"
	"isekai-server/pkg/api"
)

// HandleChat рассылает текст как есть, отправителю тоже
func HandleChat(ctx handlers.Context, p api.ChatPayload) (handlers.Result, error) {
	ctx.Game.Broadcast(api.ChatMessage{
		Type: api.MsgChat,
		ID:   ctx.Actor.String(),
		Text: p.Text,
	}, "")
	return handlers.Result{Msg: p.Text, MsgType: "SPEECH"}, nil
}
