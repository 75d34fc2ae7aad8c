package cli

import (
	"context"
	"fmt"

	"careerai/internal/ai"
	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/flows"
	"careerai/internal/observability"
	"careerai/internal/store"
	"careerai/internal/tools"
)

// services is everything a command needs to invoke flows.
type services struct {
	logger    *errors.Logger
	store     store.ResumeStore
	backend   ai.Backend
	telemetry *observability.Manager
	invoker   *flows.Invoker
}

// newServices wires the catalog, resume store, tool registry, backend and
// telemetry into an invoker. Callers must call close.
func newServices(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*services, error) {
	rt := &services{logger: logger}

	catalog, err := flows.DefaultCatalog(cfg.Prompts.Overrides)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid flow catalog", err)
	}

	policy, err := tools.ParseFallbackPolicy(cfg.Tools.Resumes.Fallback)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid resume tool fallback", err)
	}

	rt.store, err = store.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(logger)
	if err := registry.Register(tools.NewGetAllResumesTool(rt.store, policy)); err != nil {
		rt.close(ctx)
		return nil, err
	}

	backend, err := ai.NewGeminiBackend(ctx, cfg, logger)
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	rt.backend = backend

	rt.telemetry, err = observability.NewManager(cfg.Observability, Version, logger)
	if err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	registry.OnFallback(rt.telemetry.RecordFallback)

	rt.invoker = flows.NewInvoker(catalog, rt.backend, registry, logger,
		flows.WithRecorder(rt.telemetry))
	return rt, nil
}

// close releases everything newServices opened, in reverse order.
func (rt *services) close(ctx context.Context) {
	if rt.telemetry != nil {
		if err := rt.telemetry.Shutdown(ctx); err != nil {
			rt.logger.LogError(err, "Failed to shut down observability")
		}
	}
	if rt.backend != nil {
		if err := rt.backend.Close(); err != nil {
			rt.logger.LogError(err, "Failed to close generation backend")
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.LogError(err, "Failed to close resume store")
		}
	}
}

// withServices runs fn with services built from the command context.
func withServices(ctx context.Context, fn func(*services) error) error {
	rt, err := newServices(ctx, getConfigFromContext(ctx), getLoggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer rt.close(context.WithoutCancel(ctx))
	return fn(rt)
}
