// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gat-college/faqbot/internal/aicache"
	"github.com/gat-college/faqbot/internal/assistant"
	"github.com/gat-college/faqbot/internal/buildinfo"
	"github.com/gat-college/faqbot/internal/config"
	"github.com/gat-college/faqbot/internal/faq"
	"github.com/gat-college/faqbot/internal/genai"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/metrics"
	"github.com/gat-college/faqbot/internal/pipeline"
	"github.com/gat-college/faqbot/internal/ratelimit"
	"github.com/gat-college/faqbot/internal/rules"
	"github.com/gat-college/faqbot/internal/sentry"
	"github.com/gat-college/faqbot/internal/storage"
	"github.com/gat-college/faqbot/internal/topic"
	"github.com/gat-college/faqbot/internal/warmup"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	store          storage.Store
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	faqs           *faq.Cache
	memo           *aicache.Tiered
	generator      assistant.Generator // nil when no provider key is set
	assistant      *assistant.Invoker
	resolver       *pipeline.Resolver
	chatLimiter    *ratelimit.KeyedLimiter // nil when CHAT_RATE_BURST is 0
	readinessState *warmup.ReadinessState
	router         *gin.Engine
	server         *http.Server
	wg             sync.WaitGroup // background goroutines, awaited before resources close
}

// components are the infrastructure pieces Initialize connects before the
// application graph is built on top of them.
type components struct {
	store     storage.Store
	memo      *aicache.Tiered
	generator assistant.Generator
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "faqbot")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// package-level slog calls pick up the request ID through ContextHandler
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Get().Version).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Get().Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	store, err := storage.Open(ctx, cfg, log, storage.OpenOptions{})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	memo, err := newMemo(ctx, cfg, log, m)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("ai cache: %w", err)
	}

	var gen assistant.Generator
	if fg := genai.CreateGenerator(ctx, genai.NewLLMConfig(cfg), log, m); fg != nil {
		gen = fg
	}

	gin.SetMode(gin.ReleaseMode)
	app := newApplication(cfg, log, components{
		store:     store,
		memo:      memo,
		generator: gen,
		registry:  registry,
		metrics:   m,
	})

	log.WithField("store", store.Backend()).
		WithField("ai_enabled", gen != nil).
		WithField("redis_cache", memo.HasRemote()).
		Info("Initialization complete")
	return app, nil
}

// newMemo builds the AI answer cache. Redis is optional: a connection
// failure is logged and the process keeps the in-memory tier only.
func newMemo(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*aicache.Tiered, error) {
	lru, err := aicache.NewLRU(cfg.AICacheSize, m)
	if err != nil {
		return nil, err
	}

	var remote aicache.Remote
	if cfg.RedisURL != "" {
		redisCtx, cancel := context.WithTimeout(ctx, config.RedisConnect)
		r, err := aicache.NewRedis(redisCtx, cfg.RedisURL, cfg.AIRedisTTL)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, AI cache is memory only")
		} else {
			remote = r
			log.WithField("ttl", cfg.AIRedisTTL.String()).Info("Redis AI cache enabled")
		}
	}
	return aicache.NewTiered(lru, remote, log, m), nil
}

func newApplication(cfg *config.Config, log *logger.Logger, c components) *Application {
	faqs := faq.NewCache(c.store, log, c.metrics)

	invoker := assistant.New(c.generator, c.memo, assistant.Options{
		Timeout:      cfg.AITimeout,
		CallDeadline: cfg.AICallDeadline,
		Workers:      cfg.AIWorkers,
		CacheErrors:  cfg.AICacheErrors,
	}, log, c.metrics)

	resolver := pipeline.New(pipeline.Deps{
		Rules:   rules.NewDefaultMatcher(),
		FAQs:    faqs,
		Matcher: faq.NewMatcher(cfg.FAQMatchThreshold),
		Topic:   topic.NewDefaultGate(),
		AI:      invoker,
		Log:     log,
		Metrics: c.metrics,
	})

	var chatLimiter *ratelimit.KeyedLimiter
	if cfg.ChatRateBurst > 0 {
		chatLimiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:       "chat",
			Burst:      cfg.ChatRateBurst,
			RefillRate: cfg.ChatRateRefill,
			Metrics:    c.metrics,
		})
	}

	app := &Application{
		cfg:            cfg,
		logger:         log,
		store:          c.store,
		metrics:        c.metrics,
		registry:       c.registry,
		faqs:           faqs,
		memo:           c.memo,
		generator:      c.generator,
		assistant:      invoker,
		resolver:       resolver,
		chatLimiter:    chatLimiter,
		readinessState: warmup.NewReadinessState(config.Warmup),
	}
	app.router = app.newRouter()

	app.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}
	return app
}

// Handler returns the HTTP handler serving every route.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Warmup loads the first FAQ snapshot and resolves the fallback contact,
// then marks the service ready. Step failures are logged; the service
// still becomes ready and answers from whatever it has.
func (a *Application) Warmup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.Warmup)
	defer cancel()

	override := storage.Contact{Name: a.cfg.AdminName, Email: a.cfg.AdminEmail}
	err := warmup.Run(ctx, a.logger, a.metrics,
		warmup.Step{Name: "faq_snapshot", Run: a.faqs.Refresh},
		warmup.Step{Name: "admin_contact", Run: func(ctx context.Context) error {
			a.resolver.SetContact(pipeline.ResolveContact(ctx, a.store, override, a.logger))
			return nil
		}},
	)

	a.readinessState.MarkReady()
	contact := a.resolver.Contact()
	a.logger.WithField("faqs", a.faqs.Current().Len()).
		WithField("admin_email", contact.Email).
		Info("Service marked as ready after warmup")
	return err
}

// Run warms up, starts the HTTP server and the refresh job, then blocks
// until SIGINT/SIGTERM or a server failure.
func (a *Application) Run() error {
	return a.serve(a.waitForShutdownSignal())
}

// serve does not listen until the first FAQ snapshot is loaded, so the
// first request already sees the stored FAQs and the resolved contact.
//
// Shutdown order:
//  1. Mark draining so /readyz turns away new traffic
//  2. Cancel the FAQ refresh job and wait for it
//  3. Stop the HTTP server, letting in-flight requests finish
//  4. Close the limiter, caches, generator and store
func (a *Application) serve(stop <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Warmup(ctx); err != nil {
		a.logger.WithError(err).Warn("Warmup finished with errors")
	}

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	var runErr error
	select {
	case sig := <-stop:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server error")
		runErr = err
	}

	a.readinessState.MarkDraining()
	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return errors.Join(runErr, a.shutdown())
}

func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.logger.WithField("interval", a.cfg.FAQRefreshInterval.String()).Debug("FAQ refresh job started")
		defer a.logger.Debug("FAQ refresh job stopped")
		a.faqs.Run(ctx, a.cfg.FAQRefreshInterval)
	})
}

// startHTTPServer serves in a goroutine; the channel receives a listen
// failure, never http.ErrServerClosed.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown must run after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
		errs = append(errs, err)
	}

	a.logger.WithField("ai_in_flight", a.assistant.InFlight()).Info("Closing resources...")

	if a.chatLimiter != nil {
		a.chatLimiter.Stop()
	}
	if err := a.memo.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "ai_cache").Error("Component close error")
	}
	if closer, ok := a.generator.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "llm").Error("Component close error")
		}
	}
	if err := a.store.Close(shutdownCtx); err != nil {
		a.logger.WithError(err).WithField("component", "store").Error("Component close error")
		errs = append(errs, err)
	}

	sentry.Flush(2 * time.Second)
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return errors.Join(errs...)
}
