package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openfroyo/scaffolder/pkg/config"
	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/executor"
	"github.com/openfroyo/scaffolder/pkg/policy"
	"github.com/openfroyo/scaffolder/pkg/stores"
	"github.com/openfroyo/scaffolder/pkg/telemetry"
)

// codeInvalidConfig marks configuration and catalog problems.
const codeInvalidConfig = "INVALID_CONFIG"

// app holds the components a command works with.
type app struct {
	cfg      *config.Config
	tel      *telemetry.Telemetry
	logger   zerolog.Logger
	store    *stores.SQLiteStore
	policies *policy.Engine
	catalog  *config.CatalogWatcher
	pipeline *engine.Pipeline
}

// loadConfig reads the --config file, or ./scaffolder.yaml when present.
func loadConfig() (*config.Config, error) {
	path, required := configPath, true
	if path == "" {
		path, required = config.DefaultPath, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newApp wires configuration, telemetry, history, policies and the
// pipeline. The store is opened only when withStore is set and enabled.
func newApp(ctx context.Context, withStore bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, engine.NewValidationError("invalid configuration", err).WithCode(codeInvalidConfig)
	}

	tel, err := telemetry.NewTelemetry(&cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a := &app{cfg: cfg, tel: tel, logger: tel.Logger.Zerolog()}

	if withStore && cfg.Store.Enabled {
		if a.store, err = openStore(ctx, cfg.Store.Path); err != nil {
			a.close(ctx)
			return nil, err
		}
	}

	a.catalog, err = config.NewCatalogWatcher(cfg.CatalogPath, a.logger)
	if err != nil {
		a.close(ctx)
		return nil, engine.NewValidationError("invalid catalog", err).WithCode(codeInvalidConfig)
	}

	a.policies, err = policy.NewEngine(a.logger, policy.WithDefaults(cfg.Defaults))
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}
	if len(cfg.PolicyPaths) > 0 {
		if err := a.policies.LoadPolicies(ctx, cfg.PolicyPaths); err != nil {
			a.close(ctx)
			return nil, err
		}
	}

	opts := []engine.Option{
		engine.WithTelemetry(tel),
		engine.WithDefaults(cfg.Defaults),
		engine.WithAdmission(a.policies),
	}
	if a.store != nil {
		opts = append(opts, engine.WithHistory(a.store))
	}
	a.pipeline, err = engine.NewPipeline(executor.New(a.logger), cfg.Toolchain, cfg.ProjectsRoot, opts...)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return a, nil
}

func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return store, nil
}

// requireStore returns the history store or an error when it is disabled.
func (a *app) requireStore() (*stores.SQLiteStore, error) {
	if a.store == nil {
		return nil, errors.New("run history is disabled (store.enabled: false)")
	}
	return a.store, nil
}

func (a *app) close(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close store")
		}
	}
	if err := a.tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to shut down telemetry")
	}
}
