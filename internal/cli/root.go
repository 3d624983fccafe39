package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/control"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/config"
)

const defaultConfigPath = "config.yaml"

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:          "tiger",
	Short:        "Fortune Tiger slot machine",
	Long:         `Fortune Tiger is a slot machine that records every bet in a hash-linked ledger.`,
	SilenceUsage: true,
	RunE:         runPlay,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, "config file")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	addPlayFlags(rootCmd)
}

// loadConfig reads the config and installs the process logger. A missing
// default config file means built-in defaults.
func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()

	path := cfgPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return nil, err
	}

	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.AppConfig) {
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	switch cfg.Logging.Format {
	case "pterm":
		// Keeps log lines from tearing the interactive prompts.
		ptermLevel := pterm.LogLevelInfo
		if slogLevel == slog.LevelDebug {
			ptermLevel = pterm.LogLevelDebug
		}
		slog.SetDefault(slog.New(pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(ptermLevel))))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
	default:
		stylelog.InitDefault(&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
	}
}

// startApp loads config, builds the app and restores the ledger.
func startApp(ctx context.Context) (*control.App, *config.AppConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	app, err := control.NewApp(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return nil, nil, err
	}

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start", "error", err)
		_ = stopApp(app)
		return nil, nil, err
	}
	return app, cfg, nil
}

// stopApp shuts the app down. An error means the chain in memory is not
// fully durable.
func stopApp(app *control.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.Stop(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		return err
	}
	return nil
}
