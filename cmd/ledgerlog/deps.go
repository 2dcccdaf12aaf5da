package main

import (
	"context"
	"fmt"
	"os"

	"github.com/auditra/ledgerlog/internal/application/handlers"
	"github.com/auditra/ledgerlog/internal/domain/services"
	"github.com/auditra/ledgerlog/internal/infrastructure/config"
	"github.com/auditra/ledgerlog/internal/infrastructure/index/qdrant"
	"github.com/auditra/ledgerlog/internal/infrastructure/ledger/sqlite"
)

// Deps holds high-level dependencies for commands. Only the handler is
// exposed - services and repositories are internal.
type Deps struct {
	Config  *config.Config
	Handler *handlers.RecordHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	ledger *sqlite.Repository
	index  *qdrant.Repository
}

// withDeps loads config and builds dependencies, then calls the
// provided function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including
// low-level components. Used by commands that need direct repository
// access.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ledger, err := sqlite.NewRepository(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("creating ledger repository: %w", err)
	}
	defer ledger.Close()

	if err := ledger.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring ledger schema: %w", err)
	}

	index, err := qdrant.NewRepository(cfg.Index)
	if err != nil {
		return fmt.Errorf("creating index repository: %w", err)
	}
	defer index.Close()

	reconciler := services.NewReconciler(ledger, index, services.SweepConfig{
		Actions:   cfg.Sweep.Actions,
		Resources: cfg.Sweep.Resources,
	})
	ingest := services.NewIngest(ledger)
	aggregator := services.NewAggregator(reconciler, ingest, services.AggregatorConfig{
		DebounceWindow: cfg.Aggregator.DebounceWindow,
		RecencySize:    cfg.Aggregator.RecencySize,
	})

	deps := &internalDeps{
		Deps: Deps{
			Config:  cfg,
			Handler: handlers.NewRecordHandler(reconciler, aggregator),
		},
		ledger: ledger,
		index:  index,
	}

	return fn(deps)
}
