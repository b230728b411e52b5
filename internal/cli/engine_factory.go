package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/pkg/adapters/file"
	"github.com/aretw0/dataflow/pkg/adapters/memory"
	"github.com/aretw0/dataflow/pkg/adapters/redis"
	"github.com/aretw0/dataflow/pkg/metrics"
	"github.com/aretw0/dataflow/pkg/persistence/middleware"
	"github.com/aretw0/dataflow/pkg/plugins/basic"
	"github.com/aretw0/dataflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// CreateEngine builds an engine with the bundled plugins and the configured
// store. The returned close func releases the store's connections.
func CreateEngine(cfg *Config, logger *slog.Logger, reg prometheus.Registerer) (*dataflow.Engine, func() error, error) {
	opts := []dataflow.Option{
		dataflow.WithLogger(logger),
		dataflow.WithPlugins(basic.New()),
	}
	if reg != nil {
		opts = append(opts, dataflow.WithMetrics(metrics.New(reg)))
	}

	closer := func() error { return nil }
	var store ports.GraphStore
	switch cfg.Store.Backend {
	case "memory":
		store = memory.NewStore()
	case "file":
		store = file.NewStore(cfg.Store.Dir, file.Format(cfg.Store.Format))
	case "redis":
		ttl, err := cfg.Store.Redis.Expiration()
		if err != nil {
			return nil, nil, err
		}
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithPrefix(cfg.Store.Redis.Prefix),
			redis.WithTTL(ttl),
		)
		store = rs
		opts = append(opts, dataflow.WithLocker(redis.NewLocker(rs.Client(), cfg.Store.Redis.Prefix), 0))
		closer = rs.Close
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	keys, err := cfg.Store.Encryption()
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	if keys.ActiveKey != nil {
		seal, err := middleware.NewEncryptionMiddleware(keys)
		if err != nil {
			_ = closer()
			return nil, nil, err
		}
		store = middleware.Chain(store, seal)
	}
	opts = append(opts, dataflow.WithStore(store))

	engine, err := dataflow.New(opts...)
	if err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("Engine ready", "store", cfg.Store.Backend, "sealed", keys.ActiveKey != nil)
	return engine, closer, nil
}
