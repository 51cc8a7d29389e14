package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/chantabs/internal/config"
	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/events"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
	"github.com/MrSnakeDoc/chantabs/internal/metrics"
	"github.com/MrSnakeDoc/chantabs/internal/persist"
	"github.com/MrSnakeDoc/chantabs/internal/redis"
	"github.com/MrSnakeDoc/chantabs/internal/scheduler"
	"github.com/MrSnakeDoc/chantabs/internal/session"
	"github.com/MrSnakeDoc/chantabs/internal/sources/seed"
	"github.com/MrSnakeDoc/chantabs/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/chantabs/internal/store/redis"
	"github.com/MrSnakeDoc/chantabs/internal/version"
)

// stateStore is what both store backends provide.
type stateStore interface {
	persist.Source
	persist.Store
	deps.Pinger
}

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	writer       *persist.Writer
	registry     *session.Registry
	seedReloader *scheduler.SeedReloader
	reaper       *scheduler.IdleReaper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	m := metrics.New()

	var (
		store       stateStore
		redisClient *goredis.Client
	)
	switch cfg.Store {
	case config.StoreRedis:
		// Fail fast if Redis never becomes reachable
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
		store = redisstore.NewStore(client, cfg.StateTTL)
	default:
		loggerClient.Warn("using the in-memory store, state is lost on restart")
		store = memory.NewStore()
	}

	writer := persist.NewWriter(store, loggerClient, persist.Options{
		WriteTimeout: cfg.WriteTimeout,
		Recorder:     m,
	})

	hub := events.NewHub(loggerClient, events.Options{
		Buffer:   cfg.EventBuffer,
		Recorder: m,
	})

	source := seed.NewSource(cfg.SeedFile, m.SeedEntries)
	var seedReloadTrigger chan struct{}
	if source.Enabled() {
		loggerClient.Info("seed file configured",
			logger.String("file", cfg.SeedFile))
		seedReloadTrigger = make(chan struct{}, 1)
	}
	seedReloader := scheduler.NewSeedReloader(source, loggerClient, cfg.SeedReloadInterval, seedReloadTrigger)

	registry := session.NewRegistry(session.RegistryOptions{
		Loader:      persist.NewLoader(store, writer),
		Locator:     defaultLocator(cfg),
		Seed:        source.Bookmarks,
		LoadTimeout: cfg.LoadTimeout,
		Active:      m.SessionsActive,
		OnCreate:    hub.Bind,
		Deps: session.Deps{
			Saver:     writer,
			Navigator: hub,
			Logger:    loggerClient,
		},
	})

	reaper := scheduler.NewIdleReaper(registry, m, loggerClient, cfg.ReapInterval, cfg.IdleTimeout)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		RateLimit:         cfg.RateLimit,
		RateBurst:         cfg.RateBurst,
		Registry:          registry,
		Hub:               hub,
		Store:             store,
		Metrics:           m,
		SeedReloadTrigger: seedReloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		writer:       writer,
		registry:     registry,
		seedReloader: seedReloader,
		reaper:       reaper,
	}
}

// defaultLocator opens the first tab of new users at the configured
// channel. Without one they start with no tabs.
func defaultLocator(cfg *config.Config) session.Locator {
	if cfg.DefaultChannelID == "" {
		return nil
	}
	loc := domain.NewLocation(cfg.DefaultGuildID, cfg.DefaultChannelID)
	return session.LocatorFunc(func(string) (domain.Location, bool) { return loc, true })
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting chantabs v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("chantabs %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.writer.Start()

	// Load the seed before serving so new users get it from the first request
	if err := a.seedReloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start seed reloader: %w", err)
	}
	a.logger.Info("seed reloader started",
		logger.Duration("interval", a.cfg.SeedReloadInterval))

	a.reaper.Start(ctx)
	a.logger.Info("idle reaper started",
		logger.Duration("interval", a.cfg.ReapInterval),
		logger.Duration("idle_timeout", a.cfg.IdleTimeout))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// No new mutations once the server is down
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.seedReloader.Stop()
	a.reaper.Stop()

	// Flush queued writes before the store goes away
	if err := a.writer.Stop(shutdownCtx); err != nil {
		a.logger.Warn("pending state writes lost", logger.Error(err))
	} else {
		a.logger.Info("✅ State flushed",
			logger.Int("users", a.registry.Len()))
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ chantabs stopped cleanly")
	return nil
}
