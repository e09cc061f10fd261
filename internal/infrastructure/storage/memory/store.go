package memory

import (
	"context"
	"sync"

	"isekai-server/internal/domain"
	"isekai-server/internal/infrastructure/storage"
)

// Store - хранилище в памяти процесса. Живет до рестарта.
type Store struct {
	mu sync.RWMutex

	hasher   storage.Hasher
	accounts map[string]storage.Account
	// owners: id игрока -> имя аккаунта
	owners   map[domain.PlayerID]string
	saves    map[domain.PlayerID]domain.PlayerSave
	closed   bool
}

func New(hasher storage.Hasher) *Store {
	return &Store{
		hasher:   hasher,
		accounts: make(map[string]storage.Account),
		owners:   make(map[domain.PlayerID]string),
		saves:    make(map[domain.PlayerID]domain.PlayerSave),
	}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) VerifyLogin(ctx context.Context, username, password string) (domain.PlayerID, error) {
	s.mu.RLock()
	acc, ok := s.accounts[username]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return "", storage.ErrStoreClosed
	}
	if !ok {
		return "", storage.ErrInvalidCredentials
	}

	// bcrypt медленный, сравниваем без блокировки
	match, err := s.hasher.Verify(acc, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", storage.ErrInvalidCredentials
	}
	return acc.PlayerID, nil
}

func (s *Store) AccountExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storage.ErrStoreClosed
	}
	_, ok := s.accounts[username]
	return ok, nil
}

func (s *Store) CreateAccount(ctx context.Context, username, password string, id domain.PlayerID) error {
	acc, err := s.hasher.NewAccount(username, password, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	if _, exists := s.accounts[username]; exists {
		return storage.ErrAccountExists
	}
	if _, taken := s.owners[id]; taken {
		return storage.ErrPlayerIDTaken
	}
	s.accounts[username] = acc
	s.owners[id] = username
	return nil
}

func (s *Store) SavePlayer(ctx context.Context, id domain.PlayerID, save domain.PlayerSave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	s.saves[id] = save
	return nil
}

func (s *Store) LoadPlayer(ctx context.Context, id domain.PlayerID) (domain.PlayerSave, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.PlayerSave{}, false, storage.ErrStoreClosed
	}
	save, ok := s.saves[id]
	return save, ok, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
