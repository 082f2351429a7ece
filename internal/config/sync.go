package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type SyncConfig struct {
	CacheTTLMins       int `env:"CACHE_TTL_MINUTES" envDefault:"12"`
	CacheMaxEntries    int `env:"CACHE_MAX_ENTRIES" envDefault:"1000"`
	SessionTimeoutMins int `env:"SESSION_TIMEOUT_MINUTES" envDefault:"15"`
	MaxSessions        int `env:"MAX_SESSIONS" envDefault:"500"`
	BatchSize          int `env:"SYNC_BATCH_SIZE" envDefault:"10"`
	BatchDelayMS       int `env:"SYNC_BATCH_DELAY_MS" envDefault:"100"`

	StartingFragments int64 `env:"STARTING_FRAGMENTS" envDefault:"100"`
	StartingLives     int64 `env:"STARTING_LIVES" envDefault:"3"`
}

func LoadSync() (SyncConfig, error) {
	var cfg SyncConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c SyncConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMins) * time.Minute
}

func (c SyncConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMins) * time.Minute
}

func (c SyncConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}
