package world

import (
	"isekai-server/internal/domain"
)

// Tx - доступ к реестру внутри Update/View. Живет только на время вызова fn,
// сохранять его или указатели на сущности за пределами fn нельзя.
type Tx struct {
	r        *Registry
	readOnly bool
}

func (tx *Tx) mustWrite() {
	if tx.readOnly {
		panic("world: mutation inside View")
	}
}

// --- Игроки ---

// Player возвращает живой указатель (только внутри транзакции)
func (tx *Tx) Player(id domain.PlayerID) (*domain.PlayerEntity, bool) {
	p, ok := tx.r.players[id]
	return p, ok
}

func (tx *Tx) InsertPlayer(p *domain.PlayerEntity) error {
	tx.mustWrite()
	if _, exists := tx.r.players[p.ID]; exists {
		return ErrPlayerExists
	}
	tx.r.players[p.ID] = p
	tx.r.playerOrder = append(tx.r.playerOrder, p.ID)
	return nil
}

func (tx *Tx) DeletePlayer(id domain.PlayerID) (domain.PlayerEntity, bool) {
	tx.mustWrite()
	p, ok := tx.r.players[id]
	if !ok {
		return domain.PlayerEntity{}, false
	}
	delete(tx.r.players, id)
	tx.r.playerOrder = removeID(tx.r.playerOrder, id)
	return *p, true
}

func (tx *Tx) PlayersSnapshot() []domain.PlayerEntity {
	out := make([]domain.PlayerEntity, 0, len(tx.r.playerOrder))
	for _, id := range tx.r.playerOrder {
		out = append(out, *tx.r.players[id])
	}
	return out
}

// --- Враги ---

func (tx *Tx) Hostile(id domain.HostileID) (*domain.HostileEntity, bool) {
	h, ok := tx.r.hostiles[id]
	return h, ok
}

// NewHostileID выдает свободный ID врага
func (tx *Tx) NewHostileID() domain.HostileID {
	for i := 0; i < maxIDAttempts; i++ {
		id := domain.HostileID(tx.r.newID())
		if _, taken := tx.r.hostiles[id]; !taken {
			return id
		}
	}
	return domain.HostileID(tx.r.newID() + tx.r.newID())
}

func (tx *Tx) InsertHostile(h *domain.HostileEntity) {
	tx.mustWrite()
	if _, exists := tx.r.hostiles[h.ID]; !exists {
		tx.r.hostileOrder = append(tx.r.hostileOrder, h.ID)
	}
	tx.r.hostiles[h.ID] = h
}

func (tx *Tx) DeleteHostile(id domain.HostileID) bool {
	tx.mustWrite()
	if _, ok := tx.r.hostiles[id]; !ok {
		return false
	}
	delete(tx.r.hostiles, id)
	tx.r.hostileOrder = removeID(tx.r.hostileOrder, id)
	return true
}

// Hostiles - живые указатели в порядке вставки. Возвращается копия среза
// идентификаторов, так что удалять врагов во время обхода безопасно.
func (tx *Tx) Hostiles() []*domain.HostileEntity {
	out := make([]*domain.HostileEntity, 0, len(tx.r.hostileOrder))
	for _, id := range tx.r.hostileOrder {
		out = append(out, tx.r.hostiles[id])
	}
	return out
}

func (tx *Tx) HostilesSnapshot() []domain.HostileEntity {
	out := make([]domain.HostileEntity, 0, len(tx.r.hostileOrder))
	for _, id := range tx.r.hostileOrder {
		out = append(out, *tx.r.hostiles[id])
	}
	return out
}

// FirstHostileInRange - первый по порядку вставки враг с dist < radius
func (tx *Tx) FirstHostileInRange(origin domain.Position, radius float64) (*domain.HostileEntity, bool) {
	for _, id := range tx.r.hostileOrder {
		h := tx.r.hostiles[id]
		if origin.DistanceTo(h.Pos) < radius {
			return h, true
		}
	}
	return nil, false
}

func removeID[T comparable](ids []T, id T) []T {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
