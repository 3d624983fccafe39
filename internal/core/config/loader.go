package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
)

// DefaultChainPath is where the file backend keeps the chain.
const DefaultChainPath = "blockchain.json"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads configuration from a YAML file. An empty path returns the
// defaults.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = BackendFile
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = DefaultChainPath
	}
	if c.Ledger.HashAlgorithm == "" {
		c.Ledger.HashAlgorithm = string(hasher.SHA256)
	}
	c.Ledger.WriteRetry = c.Ledger.WriteRetry.WithDefaults()

	if c.Game.MinBet == "" {
		c.Game.MinBet = "1"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "tint"
	}
}

// Validate rejects settings the application can not run with.
func (c *AppConfig) Validate() error {
	switch c.Ledger.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: redis backend needs redis.url", ErrInvalidConfig)
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: postgres backend needs database.url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown ledger backend %q", ErrInvalidConfig, c.Ledger.Backend)
	}

	if _, err := hasher.ParseAlgorithm(c.Ledger.HashAlgorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := c.MinBet(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case "tint", "pterm", "json":
	default:
		return fmt.Errorf("%w: unknown logging format %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// MinBet parses game.min_bet.
func (c *AppConfig) MinBet() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Game.MinBet)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: game.min_bet %q: %w", ErrInvalidConfig, c.Game.MinBet, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: game.min_bet must be positive", ErrInvalidConfig)
	}
	return d, nil
}

// Algorithm returns the configured hash algorithm.
func (c *AppConfig) Algorithm() hasher.Algorithm {
	alg, _ := hasher.ParseAlgorithm(c.Ledger.HashAlgorithm)
	return alg
}
