package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Wyvern137/hackathon/internal/adapters/memory"
	"github.com/Wyvern137/hackathon/internal/adapters/openrouter"
	redisstore "github.com/Wyvern137/hackathon/internal/adapters/redis"
	"github.com/Wyvern137/hackathon/internal/adapters/sqlite"
	"github.com/Wyvern137/hackathon/internal/analytics"
	"github.com/Wyvern137/hackathon/internal/config"
	"github.com/Wyvern137/hackathon/internal/logging"
	"github.com/Wyvern137/hackathon/internal/metrics"
	"github.com/Wyvern137/hackathon/internal/postprocess"
	"github.com/Wyvern137/hackathon/pkg/ports"
	"github.com/spf13/cobra"
)

// app holds the shared wiring of the run and chat commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	sessions  ports.SessionStore
	store     *sqlite.Store
	generator *openrouter.Client
	images    *openrouter.ImageClient
	tagger    *postprocess.Tagger
	stats     *analytics.Aggregator

	// evict runs the idle-session sweeper for the memory driver.
	evict func(ctx context.Context)
	close func()
}

func buildApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logging.New(logging.ParseLevel(cfg.LogLevel)),
		metrics: metrics.New(),
		evict:   func(context.Context) {},
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	a.store = store
	a.stats = analytics.New(store)

	switch cfg.Session.Driver {
	case "redis":
		rs := redisstore.New(cfg.Session.Redis.Addr, cfg.Session.Redis.Password, cfg.Session.Redis.DB,
			redisstore.WithTTL(cfg.Session.IdleTTL),
			redisstore.WithPrefix(cfg.Session.Redis.Prefix))
		a.sessions = rs
		a.close = func() {
			_ = rs.Close()
			_ = store.Close()
		}
	default:
		ms := memory.NewStore(
			memory.WithIdleTTL(cfg.Session.IdleTTL),
			memory.WithMetrics(a.metrics),
		)
		a.sessions = ms
		a.evict = func(ctx context.Context) {
			ms.RunEviction(ctx, 10*time.Minute)
		}
		a.close = func() {
			_ = store.Close()
		}
	}

	a.generator = openrouter.New(
		cfg.Generator.APIURL,
		cfg.Generator.APIKey,
		cfg.Generator.Model,
		cfg.Generator.FallbackModels,
		openrouter.WithTimeout(cfg.Generator.Timeout),
		openrouter.WithLogger(a.logger),
		openrouter.WithMetrics(a.metrics),
	)
	a.images = openrouter.NewImageClient(cfg.Generator.APIURL, cfg.Generator.APIKey)
	a.tagger = postprocess.NewTagger(a.generator)
	return a, nil
}
