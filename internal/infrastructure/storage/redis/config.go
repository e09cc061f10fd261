package redis

import "time"

// Config - параметры подключения к Redis
type Config struct {
	// URL вида redis://localhost:6379/0
	URL string `yaml:"url"`

	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`

	// DialTimeout ограничивает проверку соединения при старте
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379/0",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
	}
}
