package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isekai-server/internal/domain"
	"isekai-server/internal/infrastructure/storage"
)

func newStore() *Store {
	return New(storage.Hasher{Cost: 4})
}

func TestStore_Accounts(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	exists, err := s.AccountExists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateAccount(ctx, "alice", "pw", "p1"))
	assert.ErrorIs(t, s.CreateAccount(ctx, "alice", "other", "p2"), storage.ErrAccountExists)

	id, err := s.VerifyLogin(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerID("p1"), id)

	_, err = s.VerifyLogin(ctx, "alice", "nope")
	assert.ErrorIs(t, err, storage.ErrInvalidCredentials)
	_, err = s.VerifyLogin(ctx, "bob", "pw")
	assert.ErrorIs(t, err, storage.ErrInvalidCredentials)
}

func TestStore_PlayerIDReservedOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	require.NoError(t, s.CreateAccount(ctx, "alice", "pw", "p1"))
	assert.ErrorIs(t, s.CreateAccount(ctx, "bob", "pw", "p1"), storage.ErrPlayerIDTaken)

	exists, err := s.AccountExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists, "rejected account is not created")
	require.NoError(t, s.CreateAccount(ctx, "bob", "pw", "p2"))
}

func TestStore_Saves(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	_, ok, err := s.LoadPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	save := domain.PlayerSave{Class: "mage", Level: 4, XP: 30, HP: 130, MaxHP: 130}
	require.NoError(t, s.SavePlayer(ctx, "p1", save))

	got, ok, err := s.LoadPlayer(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, save, got)
}

func TestStore_Closed(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.SavePlayer(context.Background(), "p1", domain.PlayerSave{}), storage.ErrStoreClosed)
}
