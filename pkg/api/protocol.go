package api

import (
	"encoding/json"
)

// Типы сообщений на проводе
const (
	MsgLoginFail       = "LOGIN_FAIL"
	MsgInit            = "INIT"
	MsgJoin            = "JOIN"
	MsgUpdate          = "UPDATE"
	MsgCorrectPosition = "CORRECT_POSITION"
	MsgCombat          = "COMBAT"
	MsgSkillFX         = "SKILL_FX"
	MsgChat            = "CHAT"
	MsgLeave           = "LEAVE"
	MsgDialogue        = "DIALOGUE"
	MsgQuestUpdate     = "QUEST_UPDATE"
	MsgQuestComplete   = "QUEST_COMPLETE"
)

// Причины отказа во входе (клиент показывает их как есть)
const (
	ReasonMissingCredentials = "Missing credentials"
	ReasonUserExists         = "User exists"
	ReasonInvalidCredentials = "Invalid credentials"
	ReasonAlreadyLoggedIn    = "Already logged in"
	ReasonServerError        = "Server error"
)

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientMessage - одно входящее сообщение. Поля плоские: {"type":"MOVE","x":1,"y":2},
// поэтому полезная нагрузка - это все сообщение целиком.
type ClientMessage struct {
	// Type название действия. Пустой тип в первом сообщении значит INIT.
	Type string `json:"type"`

	// Raw исходные байты, из них декодируется конкретный Payload
	Raw json.RawMessage `json:"-"`
}

// DecodeClientMessage разбирает конверт, сохраняя исходные байты
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, err
	}
	msg.Raw = json.RawMessage(data)
	return msg, nil
}

// --- Payloads ---

// AuthPayload - REGISTER и LOGIN
type AuthPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Class    string `json:"class,omitempty"` // только REGISTER
}

// InitPayload - анонимный вход без сохранения
type InitPayload struct {
	Class string `json:"class,omitempty"`
}

// MovePayload - предложенная клиентом позиция. Указатели отличают "нет поля" от нуля.
type MovePayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// SkillPayload - пустой Skill значит способность класса
type SkillPayload struct {
	Skill string `json:"skill,omitempty"`
}

// ChatPayload текст чата
type ChatPayload struct {
	Text string `json:"text"`
}

// EmptyPayload - ATTACK и TALK_NPC ничего не несут
type EmptyPayload struct{}

// --- СЕРВЕР -> КЛИЕНТ ---

// PlayerView - публичное состояние игрока
type PlayerView struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Class string  `json:"class"`
	HP    int     `json:"hp"`
	MaxHP int     `json:"max_hp"`
	Level int     `json:"lvl"`
	XP    int     `json:"xp"`
}

// HostileView - публичное состояние врага
type HostileView struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	HP     int     `json:"hp"`
	MaxHP  int     `json:"max_hp"`
	Attack int     `json:"attack"`
	XP     int     `json:"xp"`
	Speed  float64 `json:"speed"`
	Level  int     `json:"lvl"`
	Size   int     `json:"size"`
}

// NPCView - NPC для клиента
type NPCView struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Dialogue string  `json:"dialogue"`

	// Dialogues - все id диалогов, которые может выдать NPC
	Dialogues []string `json:"dialogues"`
}

// QuestView - активный квест игрока
type QuestView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Objective   string `json:"objective"`
	Category    string `json:"category"`
	Required    int    `json:"required"`
	Progress    int    `json:"progress"`
	RewardXP    int    `json:"reward_xp"`
}

// Снимки мира: ключ - ID сущности
type (
	PlayersState  map[string]PlayerView
	HostilesState map[string]HostileView
	NPCsState     map[string]NPCView
)

type LoginFailMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// InitMessage - полный снимок мира для только что вошедшего
type InitMessage struct {
	Type    string        `json:"type"`
	ID      string        `json:"id"`
	State   PlayersState  `json:"state"`
	Enemies HostilesState `json:"enemies"`
	NPCs    NPCsState     `json:"npcs"`
	Quest   *QuestView    `json:"quest"`
}

type JoinMessage struct {
	Type string     `json:"type"`
	ID   string     `json:"id"`
	Data PlayerView `json:"data"`
}

type UpdateMessage struct {
	Type string  `json:"type"`
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type CorrectPositionMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// CombatResult - исход ближней атаки
type CombatResult struct {
	Result     string `json:"result"` // miss, hit, kill
	Reason     string `json:"reason,omitempty"`
	Attacker   string `json:"attacker,omitempty"`
	EnemyID    string `json:"enemy_id,omitempty"`
	Damage     int    `json:"damage,omitempty"`
	EnemyHP    *int   `json:"enemy_hp,omitempty"`
	EnemyMaxHP int    `json:"enemy_max_hp,omitempty"`
	EnemyType  string `json:"enemy_type,omitempty"`
	XP         int    `json:"xp,omitempty"`
	NotifyType string `json:"notify_type,omitempty"`
	XPGained   int    `json:"xp_gained,omitempty"`
	NewLevel   int    `json:"new_level,omitempty"`
}

type CombatMessage struct {
	Type     string        `json:"type"`
	Attacker string        `json:"attacker"`
	Mobs     HostilesState `json:"mobs"`
	PData    PlayerView    `json:"p_data"`
	Result   CombatResult  `json:"result"`
}

// SkillEvent - одно событие способности. mob/damage для ударов, target/amount для лечения.
type SkillEvent struct {
	Type   string `json:"type"`
	Mob    string `json:"mob,omitempty"`
	Damage int    `json:"damage,omitempty"`
	Target string `json:"target,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

type SkillResult struct {
	Skill  string       `json:"skill"`
	Events []SkillEvent `json:"events"`
}

type SkillFXMessage struct {
	Type     string        `json:"type"`
	Attacker string        `json:"attacker"`
	Skill    string        `json:"skill"`
	Result   SkillResult   `json:"result"`
	Mobs     HostilesState `json:"mobs"`
	Players  PlayersState  `json:"players"`
}

type ChatMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

type LeaveMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type DialogueMessage struct {
	Type       string `json:"type"`
	NPCID      string `json:"npc_id"`
	NPCName    string `json:"npc_name"`
	DialogueID string `json:"dialogue_id"`
}

type QuestUpdateMessage struct {
	Type  string    `json:"type"`
	Quest QuestView `json:"quest"`
}

type QuestCompleteMessage struct {
	Type  string     `json:"type"`
	XP    int        `json:"xp"`
	PData PlayerView `json:"p_data"`
}
