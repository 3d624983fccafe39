package config

import (
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/persist"
	redisclient "github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/redis"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/postgres"
)

// Ledger backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Ledger   LedgerConfig       `yaml:"ledger"`
	Game     GameConfig         `yaml:"game"`
	Server   ServerConfig       `yaml:"server"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// LedgerConfig selects where the chain lives and how it is hashed.
type LedgerConfig struct {
	Backend       string              `yaml:"backend"`        // file, redis, postgres, memory
	Path          string              `yaml:"path"`           // file backend only
	HashAlgorithm string              `yaml:"hash_algorithm"` // sha256, blake2b-256
	WriteRetry    persist.RetryConfig `yaml:"write_retry"`
}

// GameConfig holds slot machine settings.
type GameConfig struct {
	MinBet string `yaml:"min_bet"` // decimal string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"` // 0 disables the health server
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // tint, pterm, json
}
