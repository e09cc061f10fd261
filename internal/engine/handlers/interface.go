package handlers

import (
	"encoding/json"

	"isekai-server/internal/domain"
	"isekai-server/internal/systems"
	"isekai-server/internal/world"
)

// Game описывает то, что хендлер может трогать в движке.
// GameService неявно реализует этот интерфейс.
type Game interface {
	World() *world.Registry
	Combat() *systems.Resolver
	Quests() *systems.QuestTracker
	Progression() *systems.Progression
	NPCs() []domain.NPC

	// SendTo - сообщение одному игроку
	SendTo(id domain.PlayerID, msg any)
	// Broadcast - всем, кроме exclude (пустой exclude - всем)
	Broadcast(msg any, exclude domain.PlayerID)
}

// Context передает хендлеру движок и того, кто выполняет команду.
type Context struct {
	Game  Game
	Actor domain.PlayerID
}

// Result - возвращает результат выполнения команды.
// Хендлер НЕ пишет в логи сервиса напрямую, он возвращает данные.
type Result struct {
	Msg     string // Текст для лога
	MsgType string // INFO, COMBAT, SPEECH, REJECT
}

// HandlerFunc - это контракт для любой команды (MOVE, ATTACK, etc).
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, error)

// EmptyResult - вспомогательная функция для пустого успешного ответа
func EmptyResult() Result {
	return Result{}
}
