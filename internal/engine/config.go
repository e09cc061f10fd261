package engine

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"isekai-server/internal/domain"
	"isekai-server/internal/infrastructure/storage/redis"
	"isekai-server/pkg/terrain"
)

// Типы хранилища
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config хранит параметры запуска сервера
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Seed - зерно генератора спавна и боя. 0 - взять от времени.
	Seed int64 `yaml:"seed"`

	Storage StorageConfig `yaml:"storage"`
	World   WorldConfig   `yaml:"world"`
	Network NetworkConfig `yaml:"network"`
}

type StorageConfig struct {
	Type  string       `yaml:"type"` // memory | redis
	Redis redis.Config `yaml:"redis"`
	// SaveTimeout - лимит на одну запись сохранения
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

type WorldConfig struct {
	InitialHostiles int `yaml:"initial_hostiles"`
	// TargetHostiles - к этой численности фоновый цикл тянет популяцию
	TargetHostiles   int           `yaml:"target_hostiles"`
	MaintainInterval time.Duration `yaml:"maintain_interval"`
	// Zones - пусто значит карта по умолчанию
	Zones []ZoneConfig `yaml:"zones"`
}

type ZoneConfig struct {
	Name     string       `yaml:"name"`
	Area     terrain.Rect `yaml:"area"`
	Types    []string     `yaml:"types"`
	MinLevel int          `yaml:"min_level"`
	MaxLevel int          `yaml:"max_level"`
}

type NetworkConfig struct {
	// WriteTimeout - дедлайн на одну запись в сокет
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PongWait     time.Duration `yaml:"pong_wait"`
	// HandshakeTimeout - сколько ждем первое сообщение (REGISTER/LOGIN/INIT)
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	SendBuffer       int           `yaml:"send_buffer"`
	MaxMessageSize   int64         `yaml:"max_message_size"`
	// Ограничение входящих намерений на сессию (token bucket)
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// NewConfig создает конфиг по умолчанию (случайный сид)
func NewConfig() Config {
	return Config{
		Host: "0.0.0.0",
		Port: 8765,
		Seed: time.Now().UnixNano(),
		Storage: StorageConfig{
			Type:        StorageMemory,
			Redis:       redis.DefaultConfig(),
			SaveTimeout: 5 * time.Second,
		},
		World: WorldConfig{
			InitialHostiles:  domain.InitialHostileCount,
			TargetHostiles:   domain.InitialHostileCount,
			MaintainInterval: 10 * time.Second,
		},
		Network: NetworkConfig{
			WriteTimeout:     10 * time.Second,
			PongWait:         60 * time.Second,
			HandshakeTimeout: 30 * time.Second,
			SendBuffer:       256,
			MaxMessageSize:   4096,
			RateLimit:        30,
			RateBurst:        60,
		},
	}
}

// LoadConfig читает YAML поверх значений по умолчанию, затем окружение.
// Пустой path - только окружение.
func LoadConfig(path string) (Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv - ISEKAI_HOST, ISEKAI_PORT, REDIS_URL, STORAGE_TYPE
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ISEKAI_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("ISEKAI_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: ISEKAI_PORT=%q", ErrInvalidConfig, v)
		}
		c.Port = port
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Storage.Redis.URL = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	}
	if c.Storage.Type != StorageMemory && c.Storage.Type != StorageRedis {
		return fmt.Errorf("%w: storage type %q", ErrInvalidConfig, c.Storage.Type)
	}
	if c.World.InitialHostiles < 0 || c.World.TargetHostiles < 0 {
		return fmt.Errorf("%w: negative hostile count", ErrInvalidConfig)
	}
	if c.Storage.SaveTimeout <= 0 || c.Network.WriteTimeout <= 0 || c.Network.PongWait <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.Network.RateLimit < 0 || c.Network.RateBurst < 0 {
		return fmt.Errorf("%w: negative rate limit", ErrInvalidConfig)
	}
	if c.Network.RateLimit > 0 && c.Network.RateBurst < 1 {
		return fmt.Errorf("%w: rate_burst must be at least 1 when rate_limit is set", ErrInvalidConfig)
	}
	_, err := c.World.SpawnZones()
	return err
}

// Addr - адрес для net/http
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SpawnZones переводит зоны конфига в доменные
func (w WorldConfig) SpawnZones() ([]domain.SpawnZone, error) {
	if len(w.Zones) == 0 {
		return domain.DefaultZones(), nil
	}

	zones := make([]domain.SpawnZone, 0, len(w.Zones))
	for _, zc := range w.Zones {
		if zc.MinLevel < 1 || zc.MaxLevel < zc.MinLevel {
			return nil, fmt.Errorf("%w: zone %q levels %d..%d", ErrInvalidConfig, zc.Name, zc.MinLevel, zc.MaxLevel)
		}
		if zc.Area.W <= 0 || zc.Area.H <= 0 {
			return nil, fmt.Errorf("%w: zone %q has empty area", ErrInvalidConfig, zc.Name)
		}

		z := domain.SpawnZone{
			Name:     zc.Name,
			Area:     zc.Area,
			MinLevel: zc.MinLevel,
			MaxLevel: zc.MaxLevel,
		}
		for _, name := range zc.Types {
			t, ok := domain.ParseHostileType(name)
			if !ok {
				return nil, fmt.Errorf("%w: zone %q unknown hostile type %q", ErrInvalidConfig, zc.Name, name)
			}
			z.Types = append(z.Types, t)
		}
		zones = append(zones, z)
	}
	return zones, nil
}
