package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"shoptrend-go/internal/config"
	"shoptrend-go/internal/handler"
	"shoptrend-go/internal/service"
	"shoptrend-go/pkg/extractor"
	"shoptrend-go/pkg/fetcher"
	"shoptrend-go/pkg/logger"
	"shoptrend-go/pkg/metrics"
	"shoptrend-go/pkg/scheduler"
	"shoptrend-go/pkg/storage"
	"shoptrend-go/pkg/trends"
)

// App is the wired service: extraction pipeline, cache, schedule and HTTP
// server.
type App struct {
	Config    *config.Config
	Clock     trends.Clock
	Metrics   *metrics.Metrics
	Extractor *extractor.PageExtractor
	Assembler *trends.Assembler
	Cache     *storage.TrendCache
	// Scheduler is nil when the daily refresh is disabled.
	Scheduler *scheduler.Daily
	Server    *fiber.App

	log *logger.Logger
}

// Option replaces a component before the dependents are built; used by
// tests to avoid the network.
type Option func(*builder)

type builder struct {
	fetcher extractor.PageFetcher
	clock   trends.Clock
}

func WithFetcher(f extractor.PageFetcher) Option {
	return func(b *builder) {
		b.fetcher = f
	}
}

func WithClock(c trends.Clock) Option {
	return func(b *builder) {
		b.clock = c
	}
}

// BuildPipeline wires everything needed to assemble snapshots, without the
// HTTP server or schedule.
func BuildPipeline(cfg *config.Config, opts ...Option) (*App, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	clock := b.clock
	if clock == nil {
		var err error
		clock, err = trends.NewClock(cfg.Schedule.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to create clock: %w", err)
		}
	}

	var m *metrics.Metrics
	if cfg.API.MetricsEnabled {
		m = metrics.New()
	}

	pageFetcher := b.fetcher
	if pageFetcher == nil {
		fc := fetcher.DefaultConfig()
		fc.Timeout = cfg.Source.Timeout
		if cfg.Source.UserAgent != "" {
			fc.UserAgent = cfg.Source.UserAgent
		}
		if cfg.Source.AcceptLanguage != "" {
			fc.AcceptLanguage = cfg.Source.AcceptLanguage
		}
		pageFetcher = fetcher.New(fc)
	}

	pageExtractor := extractor.NewPageExtractor(pageFetcher, extractor.Config{
		URL:        cfg.Source.URL,
		Limit:      cfg.Trends.Size,
		Selectors:  cfg.Source.Selectors,
		JSONFields: cfg.Source.JSONFields,
	}, extractor.WithMetrics(m))

	vocabulary := trends.DefaultVocabulary
	if len(cfg.Trends.Vocabulary) > 0 {
		vocabulary = cfg.Trends.Vocabulary
	}
	assembler := trends.NewAssembler(pageExtractor, clock,
		trends.WithSize(cfg.Trends.Size),
		trends.WithFiller(trends.NewFiller(vocabulary, cfg.Trends.FillerLabel)),
	)

	cache := storage.NewTrendCache(assembler, clock, storage.WithCacheMetrics(m))

	return &App{
		Config:    cfg,
		Clock:     clock,
		Metrics:   m,
		Extractor: pageExtractor,
		Assembler: assembler,
		Cache:     cache,
		log:       logger.GetLogger().WithField("component", "app"),
	}, nil
}

// New wires the full server.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a, err := BuildPipeline(cfg, opts...)
	if err != nil {
		return nil, err
	}

	var schedule service.ScheduleService
	if cfg.Schedule.Enabled {
		a.Scheduler, err = scheduler.NewDaily(cfg.Schedule.Hour, cfg.Schedule.Minute, a.Clock.Location(), a.Cache.Refresh)
		if err != nil {
			return nil, fmt.Errorf("failed to create scheduler: %w", err)
		}
		schedule = a.Scheduler
	}

	ctl := handler.NewController(a.Cache, schedule, a.Clock, handler.ControllerConfig{
		Size:             cfg.Trends.Size,
		RefreshPerMinute: cfg.API.RefreshPerMinute,
		RefreshBurst:     cfg.API.RefreshBurst,
	})

	serverConfig := handler.ServerConfig{
		CORSOrigins:  cfg.API.CORSOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if a.Metrics != nil {
		serverConfig.Metrics = a.Metrics.Handler()
	}
	a.Server = handler.NewApp(ctl, serverConfig)

	return a, nil
}

// Run refreshes once if configured, starts the schedule and serves HTTP until
// ctx is cancelled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	if a.Server == nil {
		return errors.New("server not configured")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.Config.Schedule.RefreshOnStart {
		if err := a.Cache.Refresh(ctx); err != nil {
			a.log.WithError(err).Warn("Initial refresh failed, cache will bootstrap on first read")
		}
	}

	schedDone := make(chan struct{})
	if a.Scheduler != nil {
		go func() {
			defer close(schedDone)
			a.Scheduler.Run(ctx)
		}()
	} else {
		close(schedDone)
	}

	addr := a.Config.Server.Addr()
	listenErr := make(chan error, 1)
	go func() {
		a.log.WithField("addr", addr).Info("HTTP server listening")
		listenErr <- a.Server.Listen(addr)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-listenErr:
		if err != nil {
			err = fmt.Errorf("http server: %w", err)
		}
	}

	cancel()
	a.log.Info("Shutting down")
	shutdownTimeout := a.Config.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	if shutdownErr := a.Server.ShutdownWithTimeout(shutdownTimeout); shutdownErr != nil {
		a.log.WithError(shutdownErr).Warn("HTTP server shutdown incomplete")
	}
	<-schedDone
	return err
}
