package storage

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"isekai-server/internal/domain"
)

// Hasher - хеширование паролей (bcrypt). Cost меняют только тесты.
type Hasher struct {
	Cost int
}

func DefaultHasher() Hasher {
	return Hasher{Cost: bcrypt.DefaultCost}
}

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify проверяет пароль аккаунта
func (h Hasher) Verify(acc Account, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify password: %w", err)
	}
}

// NewAccount собирает аккаунт с хешем пароля
func (h Hasher) NewAccount(username, password string, id domain.PlayerID) (Account, error) {
	hash, err := h.Hash(password)
	if err != nil {
		return Account{}, err
	}
	return Account{Username: username, PlayerID: id, PasswordHash: hash}, nil
}
