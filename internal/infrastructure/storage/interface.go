// Package storage - аккаунты и сохранения игроков.
//
// Ядро видит хранилище только через Store. Все вызовы могут блокироваться,
// поэтому их нельзя делать под блокировкой реестра.
package storage

import (
	"context"
	"errors"

	"isekai-server/internal/domain"
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrPlayerIDTaken      = errors.New("player id already reserved")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStoreClosed        = errors.New("store closed")
)

// Store - хранилище аккаунтов и сохранений
type Store interface {
	// VerifyLogin возвращает ID игрока, привязанного к аккаунту, или ErrInvalidCredentials
	VerifyLogin(ctx context.Context, username, password string) (domain.PlayerID, error)
	AccountExists(ctx context.Context, username string) (bool, error)
	// CreateAccount атомарно создает аккаунт и закрепляет за ним id.
	// Занятое имя - ErrAccountExists, id другого аккаунта - ErrPlayerIDTaken.
	CreateAccount(ctx context.Context, username, password string, id domain.PlayerID) error

	SavePlayer(ctx context.Context, id domain.PlayerID, save domain.PlayerSave) error
	// LoadPlayer: (save, false, nil) если сохранения нет
	LoadPlayer(ctx context.Context, id domain.PlayerID) (domain.PlayerSave, bool, error)

	Close() error
}

// Account - то, что лежит в хранилище по имени пользователя
type Account struct {
	Username     string          `json:"username"`
	PlayerID     domain.PlayerID `json:"player_id"`
	PasswordHash string          `json:"password_hash"`
}
