package utils

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ShortIDLen длина публичного идентификатора сущности.
const ShortIDLen = 8

// GenerateID создает короткий непрозрачный ID (первые символы UUIDv4 без дефисов).
// Уникальность в пределах реестра проверяет вызывающий код.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:ShortIDLen]
}

// Random - источник случайности, который можно подменить в тестах.
type Random interface {
	// Intn возвращает число в [0, n)
	Intn(n int) int
	// Float64 возвращает число в [0, 1)
	Float64() float64
}

// IntRange возвращает равномерное целое в [lo, hi] включительно.
func IntRange(r Random, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// FloatRange возвращает равномерное число в [lo, hi).
func FloatRange(r Random, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// LockedRand - math/rand под мьютексом: *rand.Rand не потокобезопасен,
// а спавнер дергается и из сессий, и из фонового цикла.
type LockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{src: rand.New(rand.NewSource(seed))}
}

func (r *LockedRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}
