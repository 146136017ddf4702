// ABOUTME: Shared startup for commands that touch the library
// ABOUTME: Loads .env and config, sets the log level, opens the App, and optionally drains pending shares
package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/app"
	"github.com/harper/stash/internal/config"
	"github.com/joho/godotenv"
)

// loadConfig reads .env and the layered config, then applies the log level.
// Loggers copy the level when created, so this runs before anything is built.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.SetLevel(logLevel(cfg.Level()))
	return cfg, nil
}

// openApp opens the library. With foreground set, queued shares are
// imported first, the same as the app coming to the foreground.
func openApp(ctx context.Context, foreground bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}
	if foreground {
		a.Foreground(ctx)
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		log.Warn("close failed", "err", err)
	}
}
