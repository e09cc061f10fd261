package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"isekai-server/internal/domain"
	"isekai-server/internal/infrastructure/storage"
)

type StoreSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.store = NewWithClient(client, storage.Hasher{Cost: 4})
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Аккаунты

func (s *StoreSuite) TestCreateAndVerify() {
	s.Require().NoError(s.store.CreateAccount(s.ctx, "alice", "pw", "p1"))

	exists, err := s.store.AccountExists(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(exists)

	id, err := s.store.VerifyLogin(s.ctx, "alice", "pw")
	s.Require().NoError(err)
	s.Equal(domain.PlayerID("p1"), id)
}

func (s *StoreSuite) TestPasswordNotStoredInClear() {
	s.Require().NoError(s.store.CreateAccount(s.ctx, "alice", "pw", "p1"))

	raw, err := s.mini.Get(accountKey("alice"))
	s.Require().NoError(err)
	s.NotContains(raw, `"pw"`)
}

func (s *StoreSuite) TestVerifyFailures() {
	s.Require().NoError(s.store.CreateAccount(s.ctx, "alice", "pw", "p1"))

	_, err := s.store.VerifyLogin(s.ctx, "alice", "bad")
	s.ErrorIs(err, storage.ErrInvalidCredentials)

	_, err = s.store.VerifyLogin(s.ctx, "nobody", "pw")
	s.ErrorIs(err, storage.ErrInvalidCredentials)
}

func (s *StoreSuite) TestDuplicateAccount() {
	s.Require().NoError(s.store.CreateAccount(s.ctx, "alice", "pw", "p1"))
	err := s.store.CreateAccount(s.ctx, "alice", "pw2", "p2")
	s.ErrorIs(err, storage.ErrAccountExists)

	id, err := s.store.VerifyLogin(s.ctx, "alice", "pw")
	s.Require().NoError(err)
	s.Equal(domain.PlayerID("p1"), id, "first account kept")
}

func (s *StoreSuite) TestPlayerIDReservedOnce() {
	s.Require().NoError(s.store.CreateAccount(s.ctx, "alice", "pw", "p1"))

	err := s.store.CreateAccount(s.ctx, "bob", "pw", "p1")
	s.ErrorIs(err, storage.ErrPlayerIDTaken)
	s.False(s.mini.Exists(accountKey("bob")))

	owner, err := s.mini.Get(ownerKey("p1"))
	s.Require().NoError(err)
	s.Equal("alice", owner)
}

func (s *StoreSuite) TestDuplicateAccountReleasesID() {
	s.Require().NoError(s.store.CreateAccount(s.ctx, "alice", "pw", "p1"))
	s.ErrorIs(s.store.CreateAccount(s.ctx, "alice", "pw", "p2"), storage.ErrAccountExists)

	s.False(s.mini.Exists(ownerKey("p2")))
	s.NoError(s.store.CreateAccount(s.ctx, "bob", "pw", "p2"))
}

func (s *StoreSuite) TestConcurrentRegisterSingleWinner() {
	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.CreateAccount(s.ctx, "race", "pw", domain.PlayerID(fmt.Sprintf("p%d", i)))
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	s.Equal(1, wins)
}

// Сохранения

func (s *StoreSuite) TestSaveAndLoad() {
	save := domain.PlayerSave{Class: "ninja", Level: 2, XP: 10, HP: 50, MaxHP: 100}
	s.Require().NoError(s.store.SavePlayer(s.ctx, "p1", save))

	got, ok, err := s.store.LoadPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(save, got)
}

func (s *StoreSuite) TestLoadMissing() {
	_, ok, err := s.store.LoadPlayer(s.ctx, "ghost")
	s.NoError(err)
	s.False(ok)
}

func (s *StoreSuite) TestUnreachable() {
	s.mini.Close()
	err := s.store.SavePlayer(s.ctx, "p1", domain.PlayerSave{})
	s.Error(err)
	s.mini = nil
}
