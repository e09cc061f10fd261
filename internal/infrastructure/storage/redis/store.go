package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"isekai-server/internal/domain"
	"isekai-server/internal/infrastructure/storage"
)

// Store - аккаунты и сохранения в Redis
type Store struct {
	client *redis.Client
	hasher storage.Hasher
}

// New подключается по cfg.URL и проверяет соединение
func New(ctx context.Context, cfg Config, hasher storage.Hasher) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().DialTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, hasher), nil
}

// NewWithClient - для тестов с готовым клиентом
func NewWithClient(client *redis.Client, hasher storage.Hasher) *Store {
	return &Store{client: client, hasher: hasher}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) account(ctx context.Context, username string) (storage.Account, error) {
	data, err := s.client.Get(ctx, accountKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return storage.Account{}, storage.ErrAccountNotFound
		}
		return storage.Account{}, err
	}

	var acc storage.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return storage.Account{}, fmt.Errorf("decode account %q: %w", username, err)
	}
	return acc, nil
}

func (s *Store) VerifyLogin(ctx context.Context, username, password string) (domain.PlayerID, error) {
	acc, err := s.account(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return "", storage.ErrInvalidCredentials
		}
		return "", err
	}

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
	n, err := s.client.Exists(ctx, accountKey(username)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateAccount пишет аккаунт через SETNX: два одновременных REGISTER
// с одним именем не перезапишут друг друга. Сначала тем же SETNX
// закрепляется id, чтобы новый аккаунт не получил чужое сохранение.
func (s *Store) CreateAccount(ctx context.Context, username, password string, id domain.PlayerID) error {
	acc, err := s.hasher.NewAccount(username, password, id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return err
	}

	reserved, err := s.client.SetNX(ctx, ownerKey(id), username, 0).Result()
	if err != nil {
		return err
	}
	if !reserved {
		return storage.ErrPlayerIDTaken
	}

	created, err := s.client.SetNX(ctx, accountKey(username), data, 0).Result()
	if err != nil || !created {
		// имя занято: id возвращается в пул
		if delErr := s.client.Del(ctx, ownerKey(id)).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
	}
	if err != nil {
		return err
	}
	if !created {
		return storage.ErrAccountExists
	}
	return nil
}

func (s *Store) SavePlayer(ctx context.Context, id domain.PlayerID, save domain.PlayerSave) error {
	data, err := json.Marshal(save)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, playerKey(id), data, 0).Err()
}

func (s *Store) LoadPlayer(ctx context.Context, id domain.PlayerID) (domain.PlayerSave, bool, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PlayerSave{}, false, nil
		}
		return domain.PlayerSave{}, false, err
	}

	var save domain.PlayerSave
	if err := json.Unmarshal(data, &save); err != nil {
		return domain.PlayerSave{}, false, fmt.Errorf("decode save %s: %w", id, err)
	}
	return save, true, nil
}
