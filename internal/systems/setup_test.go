package systems

import (
	"io"
	"os"
	"sync"
	"testing"

	"isekai-server/internal/domain"
	"isekai-server/internal/world"
	"isekai-server/pkg/logger"
	"isekai-server/pkg/utils"
)

func TestMain(m *testing.M) {
	// Глобальный логгер нужен до запуска тестов
	logger.InitWithOutput(io.Discard)
	os.Exit(m.Run())
}

// fixedRand всегда возвращает минимум диапазона
type fixedRand struct{}

func (fixedRand) Intn(int) int      { return 0 }
func (fixedRand) Float64() float64 { return 0 }

// recordingQueue запоминает все сохранения
type recordingQueue struct {
	mu    sync.Mutex
	saves map[domain.PlayerID][]domain.PlayerSave
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{saves: make(map[domain.PlayerID][]domain.PlayerSave)}
}

func (q *recordingQueue) Enqueue(id domain.PlayerID, save domain.PlayerSave) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.saves[id] = append(q.saves[id], save)
}

func (q *recordingQueue) count(id domain.PlayerID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.saves[id])
}

// newArena - реестр без зон спавна: убитые враги не заменяются,
// так что исход боя полностью определяется расстановкой в тесте.
func newArena(rng utils.Random) (*world.Registry, *Resolver, *recordingQueue) {
	reg := world.NewRegistry()
	queue := newRecordingQueue()
	spawner := world.NewSpawner(reg, nil, rng, 0)
	return reg, NewResolver(reg, spawner, NewProgression(queue), rng), queue
}

func placePlayer(t *testing.T, reg *world.Registry, id domain.PlayerID, class domain.Class, pos domain.Position) {
	t.Helper()
	if err := reg.AddPlayer(domain.NewPlayer(id, class, pos)); err != nil {
		t.Fatalf("add player %s: %v", id, err)
	}
}

func placeHostile(reg *world.Registry, id domain.HostileID, typ domain.HostileType, level int, pos domain.Position) {
	_ = reg.Update(func(tx *world.Tx) error {
		tx.InsertHostile(domain.NewHostile(id, typ, level, pos))
		return nil
	})
}

// newZonedSpawner спавнит только в Grasslands, где точек вне города много
func newZonedSpawner(reg *world.Registry) *world.Spawner {
	zones := domain.DefaultZones()[1:2]
	return world.NewSpawner(reg, zones, utils.NewLockedRand(7), 0)
}
