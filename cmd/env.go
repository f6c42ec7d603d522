package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/pipeline"
	"github.com/sells-group/access-cli/internal/region"
	"github.com/sells-group/access-cli/internal/store"
)

// appEnv holds the shared dependencies built from config.
type appEnv struct {
	Store      store.Store
	Normalizer *region.Normalizer
	Loader     *geo.Loader
	Fetcher    fetcher.Fetcher
	Pipeline   *pipeline.Pipeline
	closers    []func() error
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Debug("close failed", zap.Error(err))
		}
	}
}

// initEnv validates config for mode and builds the store, the boundary
// loader and the pipeline.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env, err := initBoundaryEnv(ctx)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "open store")
	}
	if st != nil {
		env.Store = st
		env.closers = append(env.closers, st.Close)
	}

	env.Pipeline = pipeline.New(cfg.Score, env.Store, env.Loader, env.Normalizer)
	return env, nil
}

// initBoundaryEnv builds the normalizer and boundary loader without a
// store.
func initBoundaryEnv(ctx context.Context) (*appEnv, error) {
	env := &appEnv{}

	aliases, err := region.LoadAliases(cfg.Region.AliasFile)
	if err != nil {
		return nil, eris.Wrap(err, "load region aliases")
	}
	env.Normalizer = region.NewNormalizer(aliases)

	cache := initCache(ctx, env)

	fetch := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Boundary.UserAgent,
		Timeout:    time.Duration(cfg.Boundary.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Boundary.MaxRetries,
	})
	env.Fetcher = fetch
	env.Loader = geo.NewLoader(fetch, cache, env.Normalizer, geo.LoaderOptions{
		URLs:         cfg.Boundary.URLs,
		NameProperty: cfg.Boundary.NameProperty,
		CacheTTL:     time.Duration(cfg.Boundary.CacheTTLHours) * time.Hour,
	})
	return env, nil
}

// initCache prefers Redis when configured and reachable, falling back to
// an in-process cache.
func initCache(ctx context.Context, env *appEnv) geo.Cache {
	if cfg.Redis.Addr == "" {
		return geo.NewMemoryCache()
	}

	rc := geo.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		zap.L().Warn("redis unavailable, using in-memory boundary cache",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		_ = rc.Close()
		return geo.NewMemoryCache()
	}
	env.closers = append(env.closers, rc.Close)
	return rc
}
