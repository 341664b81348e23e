package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/decisiveml/ruinlab/internal/assessment"
	"github.com/decisiveml/ruinlab/internal/trades"
	"github.com/decisiveml/ruinlab/pkg/config"
	"github.com/decisiveml/ruinlab/pkg/database"
	"github.com/decisiveml/ruinlab/pkg/httputil"
	"github.com/decisiveml/ruinlab/pkg/logger"
	"github.com/decisiveml/ruinlab/pkg/redis"
)

const cachePrefix = "ruinlab"

// app holds the wired dependencies shared by commands
// DB와 ledger는 설정된 경우에만 연결
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB // nil without DATABASE_URL
	redis   *redis.Client
	cache   *redis.Cache
	service *assessment.Service
}

// setup loads config and connects the optional backends
func setup(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.NewTo(cfg, os.Stderr)

	a := &app{cfg: cfg, log: log}

	// 3. Connect to database (optional)
	var sources assessment.Sources
	a.db, err = database.Open(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrNoDatabaseURL):
		log.Debug("DATABASE_URL not set, postgres sources disabled")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		sources.Repository = trades.NewRepository(a.db.Pool)
		log.Info("Connected to database")
	}

	// 4. Connect to Redis (optional)
	a.redis, err = redis.New(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.cache = redis.NewCache(a.redis, cachePrefix)

	// 5. Ledger HTTP client (optional)
	if cfg.Ledger.BaseURL != "" {
		limiter := redis.NewRateLimiter(a.redis, cachePrefix)
		sources.Ledger = httputil.New(cfg, log).WithRateLimiter(limiter, redis.LedgerRateLimit)
		sources.LedgerBaseURL = cfg.Ledger.BaseURL
	}

	// 6. Assessment service
	a.service = assessment.NewService(sources, a.cache, cfg.Simulation, log)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
