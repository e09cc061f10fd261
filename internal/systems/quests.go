package systems

import (
	"sync"

	"isekai-server/internal/domain"
)

// QuestTracker - прогресс квестов по игрокам: none -> active -> completed.
// Награду выдает вызывающий код, трекер только считает.
type QuestTracker struct {
	mu        sync.Mutex
	defs      map[string]domain.QuestDef
	firstID   string
	active    map[domain.PlayerID]*domain.QuestRecord
	completed map[domain.PlayerID][]string
}

func NewQuestTracker(defs map[string]domain.QuestDef, firstID string) *QuestTracker {
	return &QuestTracker{
		defs:      defs,
		firstID:   firstID,
		active:    make(map[domain.PlayerID]*domain.QuestRecord),
		completed: make(map[domain.PlayerID][]string),
	}
}

// AssignFirst выдает стартовый квест. Если уже есть активный - возвращает его.
func (qt *QuestTracker) AssignFirst(id domain.PlayerID) (domain.QuestRecord, bool) {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	if q, ok := qt.active[id]; ok {
		return *q, true
	}
	return qt.assignLocked(id, qt.firstID)
}

// Assign делает questID активным, если слот свободен
func (qt *QuestTracker) Assign(id domain.PlayerID, questID string) (domain.QuestRecord, bool) {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	if q, ok := qt.active[id]; ok {
		return *q, false
	}
	return qt.assignLocked(id, questID)
}

func (qt *QuestTracker) assignLocked(id domain.PlayerID, questID string) (domain.QuestRecord, bool) {
	def, ok := qt.defs[questID]
	if !ok {
		return domain.QuestRecord{}, false
	}
	rec := domain.NewQuestRecord(def)
	qt.active[id] = &rec
	return rec, true
}

// Active - копия активного квеста
func (qt *QuestTracker) Active(id domain.PlayerID) (domain.QuestRecord, bool) {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	q, ok := qt.active[id]
	if !ok {
		return domain.QuestRecord{}, false
	}
	return *q, true
}

// IncrementIfMatches засчитывает убийство категории category.
// Прогресс не превышает Required. Возвращает копию и признак изменения.
func (qt *QuestTracker) IncrementIfMatches(id domain.PlayerID, category domain.KillCategory) (domain.QuestRecord, bool) {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	q, ok := qt.active[id]
	if !ok || category == domain.KillNone || q.Category != category {
		return domain.QuestRecord{}, false
	}
	if q.Progress >= q.Required {
		return *q, false
	}
	q.Progress++
	return *q, true
}

func (qt *QuestTracker) IsComplete(id domain.PlayerID) bool {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	q, ok := qt.active[id]
	return ok && q.IsComplete()
}

// Finalize переносит завершенный квест в журнал и освобождает слот.
// Возвращает запись, id следующего квеста ("" - конец цепочки) и признак успеха.
// Незавершенный квест не трогает.
func (qt *QuestTracker) Finalize(id domain.PlayerID) (domain.QuestRecord, string, bool) {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	q, ok := qt.active[id]
	if !ok || !q.IsComplete() {
		return domain.QuestRecord{}, "", false
	}
	done := *q
	delete(qt.active, id)
	qt.completed[id] = append(qt.completed[id], done.ID)

	return done, qt.defs[done.ID].NextID, true
}

// Completed - журнал завершенных квестов
func (qt *QuestTracker) Completed(id domain.PlayerID) []string {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	out := make([]string, len(qt.completed[id]))
	copy(out, qt.completed[id])
	return out
}

// Forget сбрасывает состояние игрока (при отключении)
func (qt *QuestTracker) Forget(id domain.PlayerID) {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	delete(qt.active, id)
	delete(qt.completed, id)
}
