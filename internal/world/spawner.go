package world

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/pkg/logger"
	"isekai-server/pkg/terrain"
	"isekai-server/pkg/utils"
)

// Spawner расставляет врагов по зонам и поддерживает популяцию.
type Spawner struct {
	registry *Registry
	zones    []domain.SpawnZone
	rng      utils.Random
	// target - к этой численности тянется популяция в фоновом цикле
	target int
}

func NewSpawner(registry *Registry, zones []domain.SpawnZone, rng utils.Random, target int) *Spawner {
	return &Spawner{
		registry: registry,
		zones:    zones,
		rng:      rng,
		target:   target,
	}
}

// Zones возвращает зоны спавна (срез не менять)
func (s *Spawner) Zones() []domain.SpawnZone {
	return s.zones
}

// SpawnOne - спавн одного врага. zone == nil - случайная зона.
// false значит "не получилось", это не ошибка: популяция просто на одного меньше.
func (s *Spawner) SpawnOne(zone *domain.SpawnZone) (domain.HostileID, bool) {
	var (
		id domain.HostileID
		ok bool
	)
	_ = s.registry.Update(func(tx *Tx) error {
		id, ok = s.SpawnInTx(tx, zone)
		return nil
	})
	return id, ok
}

// SpawnInTx то же самое, но внутри уже открытой транзакции (например, из боя).
func (s *Spawner) SpawnInTx(tx *Tx, zone *domain.SpawnZone) (domain.HostileID, bool) {
	if zone == nil {
		if len(s.zones) == 0 {
			return "", false
		}
		zone = &s.zones[s.rng.Intn(len(s.zones))]
	}
	if len(zone.Types) == 0 {
		return "", false
	}

	hostileType := zone.Types[s.rng.Intn(len(zone.Types))]
	level := utils.IntRange(s.rng, zone.MinLevel, zone.MaxLevel)

	pos, found := s.pickPosition(zone)
	if !found {
		logger.Log.WithFields(logrus.Fields{
			"component": "spawner",
			"zone":      zone.Name,
		}).Debug("No safe position found, population stays short")
		return "", false
	}

	h := domain.NewHostile(tx.NewHostileID(), hostileType, level, pos)
	tx.InsertHostile(h)
	return h.ID, true
}

// pickPosition - до SpawnAttempts случайных точек, первая проходимая вне города
func (s *Spawner) pickPosition(zone *domain.SpawnZone) (domain.Position, bool) {
	a := zone.Area
	for i := 0; i < domain.SpawnAttempts; i++ {
		x := utils.FloatRange(s.rng, a.MinX(), a.MaxX())
		y := utils.FloatRange(s.rng, a.MinY(), a.MaxY())
		if terrain.Traversable(x, y) && !terrain.InsideCity(x, y) {
			return domain.Position{X: x, Y: y}, true
		}
	}
	return domain.Position{}, false
}

// ReplenishTx вызывается один раз на каждую смерть врага (внутри транзакции боя)
func (s *Spawner) ReplenishTx(tx *Tx) {
	s.SpawnInTx(tx, nil)
}

// populateAttemptsPerSpawn ограничивает Populate, если зоны не дают мест
const populateAttemptsPerSpawn = 10

// Populate спавнит count врагов. Неудачные попытки (пустая зона, нет места)
// повторяются, но не больше count*populateAttemptsPerSpawn раз. Возвращает число успешных.
func (s *Spawner) Populate(count int) int {
	spawned := 0
	for attempts := 0; spawned < count && attempts < count*populateAttemptsPerSpawn; attempts++ {
		if _, ok := s.SpawnOne(nil); ok {
			spawned++
		}
	}
	return spawned
}

// TopUp добивает популяцию до target
func (s *Spawner) TopUp() int {
	_, hostiles := s.registry.Counts()
	missing := s.target - hostiles
	if missing <= 0 {
		return 0
	}
	return s.Populate(missing)
}

// Run - фоновый цикл поддержания популяции. Завершается по ctx.
func (s *Spawner) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.TopUp(); n > 0 {
				logger.Log.WithFields(logrus.Fields{
					"component": "spawner",
					"spawned":   n,
				}).Debug("Population topped up")
			}
		}
	}
}
