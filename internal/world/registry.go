// Package world владеет авторитетным состоянием мира: игроками и врагами.
//
// Весь доступ идет через одну грубую блокировку реестра. Update дает
// эксклюзивную транзакцию (бой, движение, спавн, удаление), View - разделяемую
// (снимки для рассылки). Снимки - это копии, их можно отдавать наружу.
package world

import (
	"errors"
	"sync"

	"isekai-server/internal/domain"
	"isekai-server/pkg/terrain"
	"isekai-server/pkg/utils"
)

var (
	ErrPlayerExists   = errors.New("player already in registry")
	ErrPlayerNotFound = errors.New("player not found")
)

// maxIDAttempts сколько раз пробуем сгенерировать свободный короткий ID
const maxIDAttempts = 16

// Registry - реестр сущностей. Порядок итерации = порядок вставки.
type Registry struct {
	mu sync.RWMutex

	players     map[domain.PlayerID]*domain.PlayerEntity
	playerOrder []domain.PlayerID

	hostiles     map[domain.HostileID]*domain.HostileEntity
	hostileOrder []domain.HostileID

	newID func() string
}

func NewRegistry() *Registry {
	return &Registry{
		players:  make(map[domain.PlayerID]*domain.PlayerEntity),
		hostiles: make(map[domain.HostileID]*domain.HostileEntity),
		newID:    utils.GenerateID,
	}
}

// SetIDGenerator подменяет генератор коротких ID (детерминированные тесты)
func (r *Registry) SetIDGenerator(gen func() string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newID = gen
}

// Update выполняет fn под эксклюзивной блокировкой.
// Внутри fn нельзя ходить в хранилище или сеть.
func (r *Registry) Update(fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&Tx{r: r})
}

// View выполняет fn под разделяемой блокировкой. Мутировать через tx нельзя.
func (r *Registry) View(fn func(tx *Tx)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(&Tx{r: r, readOnly: true})
}

// --- Удобные обертки над транзакциями ---

// NewPlayerID выдает свободный ID игрока
func (r *Registry) NewPlayerID() domain.PlayerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := 0; i < maxIDAttempts; i++ {
		id := domain.PlayerID(r.newID())
		if _, taken := r.players[id]; !taken {
			return id
		}
	}
	// 16 коллизий подряд на 32 битах - что-то сильно не так, но ID все равно нужен
	return domain.PlayerID(r.newID() + r.newID())
}

// CreatePlayer создает игрока в центре города и вставляет его в реестр.
// Пустой existingID - выдать новый. save (уже загруженный вызывающим кодом,
// вне блокировки) накладывается поверх статов класса.
func (r *Registry) CreatePlayer(class domain.Class, existingID domain.PlayerID, save *domain.PlayerSave) (domain.PlayerEntity, error) {
	id := existingID
	if id == "" {
		id = r.NewPlayerID()
	}

	x, y := terrain.CitySpawn()
	p := domain.NewPlayer(id, class, domain.Position{X: x, Y: y})
	if save != nil {
		p.ApplySave(*save)
	}

	if err := r.AddPlayer(p); err != nil {
		return domain.PlayerEntity{}, err
	}
	return *p, nil
}

// AddPlayer вставляет готового игрока. Повторная вставка того же ID - ошибка.
func (r *Registry) AddPlayer(p *domain.PlayerEntity) error {
	return r.Update(func(tx *Tx) error {
		return tx.InsertPlayer(p)
	})
}

// RemovePlayer вынимает игрока и возвращает копию его последнего состояния.
func (r *Registry) RemovePlayer(id domain.PlayerID) (domain.PlayerEntity, bool) {
	var (
		last domain.PlayerEntity
		ok   bool
	)
	_ = r.Update(func(tx *Tx) error {
		last, ok = tx.DeletePlayer(id)
		return nil
	})
	return last, ok
}

// Player возвращает копию игрока
func (r *Registry) Player(id domain.PlayerID) (domain.PlayerEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return domain.PlayerEntity{}, false
	}
	return *p, true
}

// HasPlayer - есть ли игрок в реестре
func (r *Registry) HasPlayer(id domain.PlayerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[id]
	return ok
}

// SnapshotPlayers копирует всех игроков (в порядке вставки)
func (r *Registry) SnapshotPlayers() []domain.PlayerEntity {
	var out []domain.PlayerEntity
	r.View(func(tx *Tx) { out = tx.PlayersSnapshot() })
	return out
}

// SnapshotHostiles копирует всех врагов (в порядке вставки)
func (r *Registry) SnapshotHostiles() []domain.HostileEntity {
	var out []domain.HostileEntity
	r.View(func(tx *Tx) { out = tx.HostilesSnapshot() })
	return out
}

// NearestHostileInRange - первый в порядке вставки враг строго ближе radius.
// Это не ближайший по расстоянию: выбор по порядку итерации стабилен и дешев.
func (r *Registry) NearestHostileInRange(origin domain.Position, radius float64) (domain.HostileID, bool) {
	var (
		id domain.HostileID
		ok bool
	)
	r.View(func(tx *Tx) {
		var h *domain.HostileEntity
		h, ok = tx.FirstHostileInRange(origin, radius)
		if ok {
			id = h.ID
		}
	})
	return id, ok
}

// Counts количество игроков и врагов
func (r *Registry) Counts() (players, hostiles int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players), len(r.hostiles)
}
