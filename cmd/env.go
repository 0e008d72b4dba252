package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/safetyscope/safetyscope-cli/internal/classifier"
	"github.com/safetyscope/safetyscope-cli/internal/geo"
	"github.com/safetyscope/safetyscope-cli/internal/pipeline"
	"github.com/safetyscope/safetyscope-cli/internal/store"
)

// appEnv holds the resolver, classifier registry, orchestrator, and store
// needed by the predict/batch/serve commands.
type appEnv struct {
	Resolver     *geo.Resolver
	Registry     *classifier.Registry
	Orchestrator *pipeline.Orchestrator
	Store        *store.SQLiteStore // may be nil
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv loads the shapefiles and model artifacts and builds the prediction
// orchestrator. The store is optional: prediction runs are recorded
// best-effort, so a store failure downgrades to a warning. Callers should
// defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	resolver, err := geo.NewResolver(
		cfg.Geo.PrecinctShapefile, cfg.Geo.PrecinctField,
		cfg.Geo.BoroughShapefile, cfg.Geo.BoroughField,
	)
	if err != nil {
		return nil, eris.Wrap(err, "load shapefiles")
	}

	registry, err := classifier.NewRegistry(cfg.Models.Stage1Path, cfg.Models.Stage2Path, cfg.Models.CrimeThreshold)
	if err != nil {
		return nil, eris.Wrap(err, "load models")
	}

	env := &appEnv{
		Resolver:     resolver,
		Registry:     registry,
		Orchestrator: pipeline.New(registry, resolver),
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		zap.L().Warn("prediction store unavailable", zap.Error(err))
		return env, nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("prediction store migrate failed", zap.Error(err))
		_ = st.Close()
		return env, nil
	}
	env.Store = st

	return env, nil
}
