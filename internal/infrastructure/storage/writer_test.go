package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isekai-server/internal/domain"
)

// recordingStore пишет историю SavePlayer; gate (если задан) держит запись
type recordingStore struct {
	mu      sync.Mutex
	history []domain.PlayerSave
	last    map[domain.PlayerID]domain.PlayerSave
	gate    chan struct{}
	fail    error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{last: make(map[domain.PlayerID]domain.PlayerSave)}
}

func (s *recordingStore) VerifyLogin(context.Context, string, string) (domain.PlayerID, error) {
	return "", ErrInvalidCredentials
}
func (s *recordingStore) AccountExists(context.Context, string) (bool, error) { return false, nil }
func (s *recordingStore) CreateAccount(context.Context, string, string, domain.PlayerID) error {
	return nil
}
func (s *recordingStore) LoadPlayer(_ context.Context, id domain.PlayerID) (domain.PlayerSave, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	save, ok := s.last[id]
	return save, ok, nil
}
func (s *recordingStore) Close() error { return nil }

func (s *recordingStore) SavePlayer(_ context.Context, id domain.PlayerID, save domain.PlayerSave) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.history = append(s.history, save)
	s.last[id] = save
	return nil
}

func TestWriter_SaveWaitsForStore(t *testing.T) {
	store := newRecordingStore()
	w := NewWriter(store, time.Second)
	defer w.Close(context.Background())

	err := w.Save(context.Background(), "p1", domain.PlayerSave{Level: 3})
	require.NoError(t, err)

	save, ok, _ := store.LoadPlayer(context.Background(), "p1")
	require.True(t, ok)
	assert.Equal(t, 3, save.Level)
}

func TestWriter_CoalescesAndKeepsOrder(t *testing.T) {
	store := newRecordingStore()
	store.gate = make(chan struct{})
	w := NewWriter(store, time.Second)

	// Первая запись повисает на gate, остальные копятся в очереди
	w.Enqueue("p1", domain.PlayerSave{XP: 1})
	time.Sleep(20 * time.Millisecond)
	for xp := 2; xp <= 10; xp++ {
		w.Enqueue("p1", domain.PlayerSave{XP: xp})
	}
	close(store.gate)

	require.NoError(t, w.Close(context.Background()))

	store.mu.Lock()
	defer store.mu.Unlock()
	require.NotEmpty(t, store.history)
	assert.Equal(t, 10, store.last["p1"].XP, "latest save wins")
	assert.LessOrEqual(t, len(store.history), 3)
	for i := 1; i < len(store.history); i++ {
		assert.Greater(t, store.history[i].XP, store.history[i-1].XP, "saves never go backwards")
	}
}

func TestWriter_PropagatesStoreError(t *testing.T) {
	store := newRecordingStore()
	store.fail = errors.New("disk on fire")
	w := NewWriter(store, time.Second)
	defer w.Close(context.Background())

	err := w.Save(context.Background(), "p1", domain.PlayerSave{})
	assert.ErrorIs(t, err, store.fail)
}

func TestWriter_SaveAfterCloseWritesDirectly(t *testing.T) {
	store := newRecordingStore()
	w := NewWriter(store, time.Second)
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Close(context.Background()), "close is idempotent")

	require.NoError(t, w.Save(context.Background(), "p1", domain.PlayerSave{Level: 7}))
	save, ok, _ := store.LoadPlayer(context.Background(), "p1")
	require.True(t, ok)
	assert.Equal(t, 7, save.Level)

	// Enqueue после Close молча отбрасывается
	w.Enqueue("p2", domain.PlayerSave{})
	_, ok, _ = store.LoadPlayer(context.Background(), "p2")
	assert.False(t, ok)
}

func TestWriter_SaveRespectsContext(t *testing.T) {
	store := newRecordingStore()
	store.gate = make(chan struct{})
	w := NewWriter(store, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.Save(ctx, "p1", domain.PlayerSave{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(store.gate)
	require.NoError(t, w.Close(context.Background()))
}

func TestHasher_RoundTrip(t *testing.T) {
	h := Hasher{Cost: 4}
	acc, err := h.NewAccount("alice", "secret", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", acc.PasswordHash)

	ok, err := h.Verify(acc, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(acc, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
