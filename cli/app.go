package cli

import (
	"context"
	"fmt"
	"log/slog"

	"weather/apis/geocoding"
	"weather/apis/geolocation"
	"weather/apis/openmeteo"
	"weather/config"
	"weather/controller"
	"weather/history"
	"weather/manager"
	"weather/storage"
)

// App holds the services shared by all commands.
type App struct {
	Config     config.Config
	Log        *slog.Logger
	Forecaster controller.Forecaster
	Locator    geolocation.Locator
	Settings   storage.KV
	History    *history.Store

	close func() error
}

// BuildFunc creates the services for a loaded configuration.
type BuildFunc func(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error)

// Build wires the Open-Meteo clients, the device locator and the SQLite
// state file.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := storage.OpenSQLite(ctx, cfg.Storage.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	weatherManager := manager.New(
		geocoding.New(cfg.Geocoding, log),
		openmeteo.New(cfg.Weather, log),
		log,
	)

	return &App{
		Config:     cfg,
		Log:        log,
		Forecaster: weatherManager,
		Locator:    geolocation.New(cfg.Geolocation, log),
		Settings:   db,
		History:    history.New(db, log, history.WithLimit(cfg.App.MaxHistory)),
		close:      db.Close,
	}, nil
}

func (a *App) Close() error {
	if a.close == nil {
		return nil
	}

	return a.close()
}
