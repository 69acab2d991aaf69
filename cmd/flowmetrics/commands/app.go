package commands

import (
	"context"
	"fmt"

	"flowmetrics/internal/config"
	"flowmetrics/internal/domain/flow"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/infrastructure/azure"
	"flowmetrics/internal/infrastructure/cache"
	"flowmetrics/internal/infrastructure/storage/postgres"
	"flowmetrics/pkg/logger"
)

// app bundles the wired dependencies shared by the commands.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	fields    *wiql.Registry
	service   *flow.Service
	pool      *postgres.Pool
	snapshots *postgres.SnapshotStore
}

// newApp loads configuration and wires the service graph. The snapshot
// store is only wired when a database DSN is configured.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log, err := logger.New(logger.Config{Level: level, Development: cfg.Log.Development})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	fields, err := cfg.FieldRegistry()
	if err != nil {
		return nil, err
	}

	queryCache, err := cache.NewQueryCache(cfg.Cache.QuerySize)
	if err != nil {
		return nil, err
	}

	client := azure.NewClient(azure.Config{
		BaseURL:    cfg.Azure.OrgURL,
		Project:    cfg.Azure.Project,
		PAT:        cfg.Azure.PAT,
		Timeout:    cfg.Azure.Timeout,
		MaxRetries: cfg.Azure.MaxRetries,
		BatchSize:  cfg.Azure.BatchSize,
	}, log)

	a := &app{cfg: cfg, log: log, fields: fields}

	var store flow.SnapshotStore
	if cfg.Database.DSN != "" {
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
		if err != nil {
			return nil, err
		}
		a.pool = pool

		snapshots, err := postgres.NewSnapshotStore(pool)
		if err != nil {
			return nil, err
		}
		if err := snapshots.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.snapshots = snapshots
		store = snapshots
	}

	a.service = flow.NewService(client, store, queryCache, fields, log)
	return a, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// fetchOptions builds FetchOptions from config defaults and flag values.
func (a *app) fetchOptions(project string, daysBack int, types, states, assignees []string) flow.FetchOptions {
	if project == "" {
		project = a.cfg.Azure.Project
	}
	if daysBack == 0 {
		daysBack = a.cfg.Metrics.DaysBack
	}
	return flow.FetchOptions{
		Project:       project,
		DaysBack:      daysBack,
		WorkItemTypes: types,
		States:        states,
		Assignees:     assignees,
	}
}
