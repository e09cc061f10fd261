package domain

import "strings"

// ActionType - внутренний идентификатор входящего намерения клиента
type ActionType uint8

const (
	ActionUnknown ActionType = iota
	// Рукопожатие (допустимы только первым сообщением)
	ActionRegister
	ActionLogin
	ActionInit
	// Игровые намерения
	ActionMove
	ActionAttack
	ActionSkill
	ActionChat
	ActionTalkNPC
)

// Маппинг для конвертации JSON -> Domain
var actionStringToCmd = map[string]ActionType{
	"REGISTER": ActionRegister,
	"LOGIN":    ActionLogin,
	"INIT":     ActionInit,
	"MOVE":     ActionMove,
	"ATTACK":   ActionAttack,
	"SKILL":    ActionSkill,
	"CHAT":     ActionChat,
	"TALK_NPC": ActionTalkNPC,
}

// Маппинг для логов Domain -> String
var actionCmdToString = map[ActionType]string{
	ActionRegister: "REGISTER",
	ActionLogin:    "LOGIN",
	ActionInit:     "INIT",
	ActionMove:     "MOVE",
	ActionAttack:   "ATTACK",
	ActionSkill:    "SKILL",
	ActionChat:     "CHAT",
	ActionTalkNPC:  "TALK_NPC",
}

// ParseAction конвертирует поле type из JSON в ActionType (без учета регистра)
func ParseAction(s string) ActionType {
	if val, ok := actionStringToCmd[strings.ToUpper(s)]; ok {
		return val
	}
	return ActionUnknown
}

// IsHandshake - можно ли этим сообщением открыть сессию
func (a ActionType) IsHandshake() bool {
	return a == ActionRegister || a == ActionLogin || a == ActionInit
}

// String реализует интерфейс Stringer (для логов)
func (a ActionType) String() string {
	if val, ok := actionCmdToString[a]; ok {
		return val
	}
	return "UNKNOWN"
}
