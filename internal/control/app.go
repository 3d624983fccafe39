package control

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/config"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/hasher"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/ledger"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/game"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/health"
	redisclient "github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/redis"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/file"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/memory"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage/postgres"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/play"
)

// App wires the ledger, its store, the bet repository, the slot machine
// and the health server.
type App struct {
	cfg          *config.AppConfig
	ledger       *ledger.Ledger
	play         *play.PlayGame
	bets         storage.TransactionRepository
	healthMon    *health.Monitor
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewApp connects to the configured backends and builds every component.
// Nothing is loaded until Start.
func NewApp(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{cfg: cfg, log: log.With("component", "app")}

	h, err := hasher.New(cfg.Algorithm())
	if err != nil {
		return nil, err
	}

	if cfg.Database.URL != "" {
		a.db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			a.closeConnections()
			return nil, err
		}
	}
	if cfg.Redis.URL != "" {
		a.redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			a.closeConnections()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
	}

	mem := memory.NewMemoryStorage()

	// 1. Chain store
	var chainStore storage.ChainStore
	switch cfg.Ledger.Backend {
	case config.BackendFile:
		chainStore = file.NewStore(cfg.Ledger.Path, h.Algorithm())
		a.log.Info("Using file ledger", "path", cfg.Ledger.Path)
	case config.BackendRedis:
		chainStore = redisclient.NewChainStore(a.redisClient, h.Algorithm())
		a.log.Info("Using Redis ledger")
	case config.BackendPostgres:
		chainStore = postgres.NewChainStore(a.db, h.Algorithm())
		a.log.Info("Using PostgreSQL ledger")
	case config.BackendMemory:
		chainStore = memory.NewChainStore(mem)
		a.log.Warn("Using memory ledger, the chain is lost on exit")
	default:
		a.closeConnections()
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	// 2. Bet repository: the most durable backend available.
	switch {
	case a.db != nil:
		a.bets = postgres.NewBetRepo(a.db)
	case a.redisClient != nil:
		a.bets = redisclient.NewBetRepo(a.redisClient)
	default:
		a.bets = memory.NewTxRepo(mem)
	}

	// 3. Ledger and game
	a.ledger = ledger.New(chainStore,
		ledger.WithHasher(h),
		ledger.WithRetry(cfg.Ledger.WriteRetry),
		ledger.WithLogger(log),
	)

	minBet, err := cfg.MinBet()
	if err != nil {
		a.closeConnections()
		return nil, err
	}
	a.play = play.New(a.ledger, game.NewMachine(), a.bets,
		play.WithMinBet(minBet),
		play.WithLogger(log),
	)

	// 4. Health
	a.healthMon = health.NewMonitor(a.ledger)
	if a.db != nil {
		a.healthMon.AddCheck("postgres", a.db.Health)
	}
	if a.redisClient != nil {
		a.healthMon.AddCheck("redis", a.redisClient.Health)
	}
	if cfg.Server.Port > 0 {
		a.healthServer = health.NewServer(a.healthMon, cfg.Server.Port)
	}

	return a, nil
}

// Start restores the ledger and starts the background services.
func (a *App) Start(ctx context.Context) error {
	if err := a.ledger.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	if a.healthServer != nil {
		go func() {
			if err := a.healthServer.Start(); err != nil {
				a.log.Error("Health server failed", "error", err)
			}
		}()
		a.log.Info("Health server listening", "port", a.cfg.Server.Port)
	}

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}
	return nil
}

// Stop flushes pending chain writes, stops the health server and closes
// connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	var g errgroup.Group
	g.Go(func() error {
		if err := a.ledger.Close(ctx); err != nil {
			return fmt.Errorf("failed to flush ledger: %w", err)
		}
		return nil
	})
	if a.healthServer != nil {
		g.Go(func() error {
			return a.healthServer.Stop(ctx)
		})
	}
	err := g.Wait()

	// The ledger writes through these, so they close last.
	a.closeConnections()
	return err
}

func (a *App) closeConnections() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}

// Ledger returns the ledger.
func (a *App) Ledger() *ledger.Ledger { return a.ledger }

// Play returns the bet use case.
func (a *App) Play() *play.PlayGame { return a.play }

// Bets returns the bet repository.
func (a *App) Bets() storage.TransactionRepository { return a.bets }

// Health returns the current health report.
func (a *App) Health(ctx context.Context) health.HealthReport {
	return a.healthMon.CheckHealth(ctx)
}
