package domain

import "sort"

// NPC - статичный персонаж города
type NPC struct {
	ID         string
	Name       string
	Pos        Position
	DialogueID string
}

// DefaultNPCs - Мастер гильдии в центре города
func DefaultNPCs() []NPC {
	return []NPC{
		{ID: "guild", Name: "Guild Master", Pos: Position{X: 1200, Y: 1200}, DialogueID: "intro"},
	}
}

// DialogueLine одна реплика
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Dialogue - линейный диалог. Тексты рендерит клиент, сервер отдает только id.
type Dialogue struct {
	ID    string         `json:"id"`
	Lines []DialogueLine `json:"lines"`
}

// Dialogues - реестр диалогов по id
var Dialogues = map[string]Dialogue{
	"intro": {ID: "intro", Lines: []DialogueLine{
		{"Mysterious Voice", "Wake up, traveler... this world is not your own."},
		{"Mysterious Voice", "If you seek a way home, begin by proving your will."},
		{"Guild Master", "Welcome to Haven City. I am Commander Aldus."},
		{"Guild Master", "The slimes gather outside our walls. Deal with them first."},
	}},
	"quest2_start": {ID: "quest2_start", Lines: []DialogueLine{
		{"Guild Master", "Well done, traveler. The slimes no longer plague us."},
		{"Guild Master", "Scout the grasslands. We've heard of goblin activity to the east."},
	}},
	"quest3_start": {ID: "quest3_start", Lines: []DialogueLine{
		{"Guild Master", "The goblins seem to be fleeing something greater..."},
		{"Guild Master", "To the south lies an ancient ruin. Defeat 3 ogres."},
	}},
}

// DialogueIDs - отсортированные id реестра
func DialogueIDs() []string {
	ids := make([]string, 0, len(Dialogues))
	for id := range Dialogues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DialogueFor выбирает реплику NPC по активному квесту.
// Без квеста или с неизвестным диалогом - стартовый диалог NPC.
func (n NPC) DialogueFor(questID string) string {
	if def, ok := Quests[questID]; ok {
		if _, known := Dialogues[def.Dialogue]; known {
			return def.Dialogue
		}
	}
	return n.DialogueID
}

// QuestDef - статичное описание квеста
type QuestDef struct {
	ID          string
	Name        string
	Description string
	Objective   string
	Category    KillCategory // какое убийство засчитывается
	Required    int
	RewardXP    int
	NextID      string // пусто - конец цепочки
	Dialogue    string // что говорит NPC, пока квест активен
}

// FirstQuestID стартовый квест
const FirstQuestID = "q_slime_cull"

var Quests = map[string]QuestDef{
	"q_slime_cull": {
		ID:          "q_slime_cull",
		Name:        "First Steps",
		Description: "Defeat 3 slimes outside Haven City to earn the Guild's trust.",
		Objective:   "Defeat slimes",
		Category:    KillSlime,
		Required:    3,
		RewardXP:    100,
		NextID:      "q_scout_goblins",
		Dialogue:    "intro",
	},
	"q_scout_goblins": {
		ID:          "q_scout_goblins",
		Name:        "Scout's Duty",
		Description: "Venture east and defeat 5 goblins to understand the goblin threat.",
		Objective:   "Defeat goblins",
		Category:    KillGoblin,
		Required:    5,
		RewardXP:    250,
		NextID:      "q_dungeon_entrance",
		Dialogue:    "quest2_start",
	},
	"q_dungeon_entrance": {
		ID:          "q_dungeon_entrance",
		Name:        "Into the Darkness",
		Description: "Explore the ancient dungeon to the south and defeat 3 ogres.",
		Objective:   "Defeat ogres",
		Category:    KillOgre,
		Required:    3,
		RewardXP:    500,
		Dialogue:    "quest3_start",
	},
}

// QuestRecord - прогресс игрока по активному квесту.
// Инвариант: 0 <= Progress <= Required.
type QuestRecord struct {
	ID          string
	Name        string
	Description string
	Objective   string
	Category    KillCategory
	Required    int
	Progress    int
	RewardXP    int
}

// NewQuestRecord создает запись с нулевым прогрессом
func NewQuestRecord(def QuestDef) QuestRecord {
	return QuestRecord{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Objective:   def.Objective,
		Category:    def.Category,
		Required:    def.Required,
		RewardXP:    def.RewardXP,
	}
}

func (q QuestRecord) IsComplete() bool {
	return q.Progress >= q.Required
}
