// Package container builds the autopost dependency graph from a Config and
// owns its shutdown. The HTTP server and the CLI share it.
package container

import (
	"context"
	"strings"
	"sync"

	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/nhankey2000/auto-post/internal/cache"
	"github.com/nhankey2000/auto-post/internal/config"
	"github.com/nhankey2000/auto-post/internal/content"
	"github.com/nhankey2000/auto-post/internal/database"
	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/logger"
	"github.com/nhankey2000/auto-post/internal/messaging"
	"github.com/nhankey2000/auto-post/internal/metrics"
	"github.com/nhankey2000/auto-post/internal/publisher"
	"github.com/nhankey2000/auto-post/internal/repository"
	"github.com/nhankey2000/auto-post/internal/service"
	"github.com/nhankey2000/auto-post/internal/storage"
	"github.com/nhankey2000/auto-post/internal/telemetry"
	"github.com/nhankey2000/auto-post/internal/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds the wired application. Optional parts (cache, guard) are
// nil when not configured.
type Container struct {
	// Core infrastructure
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Metrics
	cache   *cache.RedisClient
	store   storage.Store

	// Graph clients
	transport *graph.Transport

	// Services
	accounts  *service.AccountService
	posts     *service.PostService
	analytics *service.AnalyticsService
	messages  *service.MessageService

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// Option adjusts a Container while it is being built.
type Option func(*buildOptions)

type buildOptions struct {
	db        *gorm.DB
	doer      graph.Doer
	generator content.Generator
}

// WithDB uses an already opened database instead of cfg.Database.
func WithDB(db *gorm.DB) Option {
	return func(o *buildOptions) { o.db = db }
}

// WithGraph replaces the Graph transport every client talks through.
func WithGraph(d graph.Doer) Option {
	return func(o *buildOptions) { o.doer = d }
}

// WithGenerator enables post generation from prompts.
func WithGenerator(g content.Generator) Option {
	return func(o *buildOptions) { o.generator = g }
}

// Build opens every dependency cfg names and wires the services. On error
// whatever was opened so far is closed again.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	c := &Container{
		logger:  logger.Log,
		metrics: metrics.Initialize(),
	}

	if err := c.openDatabase(cfg, bo.db); err != nil {
		return nil, err
	}
	if cfg.Telemetry.Enabled {
		if err := c.db.Use(telemetry.GORMTracingPlugin(dbSystem(cfg.Database.Driver))); err != nil {
			c.logger.Warn("Database tracing disabled", zap.Error(err))
		}
	}
	if err := c.openStore(ctx, cfg); err != nil {
		c.Cleanup(ctx)
		return nil, err
	}
	c.openCache(cfg)

	doer := bo.doer
	if doer == nil {
		c.transport = graph.New(graph.Config{
			BaseURL:     cfg.Graph.BaseURL,
			Timeout:     cfg.Graph.Timeout,
			MaxRetries:  cfg.Graph.MaxRetries,
			BackoffBase: cfg.Graph.BackoffBase,
		},
			graph.WithHTTPClient(telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
				ServiceName: "graph",
				Timeout:     cfg.Graph.Timeout,
			})),
			graph.WithLogger(c.logger),
			graph.WithMetrics(c.metrics),
		)
		doer = c.transport
	}

	accountRepo := repository.NewAccountRepository(c.db)
	postRepo := repository.NewPostRepository(c.db)
	metricRepo := repository.NewMetricRepository(c.db)

	postOpts := []service.PostServiceOption{service.WithPostMetrics(c.metrics)}
	if c.cache != nil {
		postOpts = append(postOpts, service.WithGuard(cache.NewSubmissionGuard(c.cache, "", cfg.Redis.Window)))
	}
	if bo.generator == nil && cfg.Generator.URL != "" {
		bo.generator = content.NewHTTPGenerator(cfg.Generator.URL, cfg.Generator.APIKey, cfg.Generator.Timeout)
	}
	if bo.generator != nil {
		postOpts = append(postOpts, service.WithGenerator(bo.generator))
	}

	c.accounts = service.NewAccountService(accountRepo, token.NewValidator(doer, c.logger, c.metrics), c.logger)
	c.posts = service.NewPostService(postRepo, accountRepo, publisher.New(doer, c.logger, c.metrics), c.logger, postOpts...)
	c.analytics = service.NewAnalyticsService(accountRepo, metricRepo,
		analytics.NewAggregator(doer, metricRepo, c.logger, c.metrics), cfg.Analytics.DefaultDays, c.logger)
	c.messages = service.NewMessageService(accountRepo, messaging.NewBridge(doer, c.store, c.logger, c.metrics))

	if err := c.Validate(); err != nil {
		c.Cleanup(ctx)
		return nil, err
	}
	return c, nil
}

func (c *Container) openDatabase(cfg *config.Config, db *gorm.DB) error {
	if db != nil {
		c.db = db
		return nil
	}
	if err := database.Initialize(database.Config(cfg.Database), c.logger); err != nil {
		return NewInitializationError("Failed to open database", []string{err.Error()})
	}
	if err := database.Migrate(database.DB); err != nil {
		database.Close()
		return NewInitializationError("Failed to migrate database", []string{err.Error()})
	}
	c.db = database.DB
	c.OnCleanup(func(context.Context) error { return database.Close() })
	return nil
}

func dbSystem(driver string) string {
	if strings.EqualFold(driver, "sqlite") {
		return "sqlite"
	}
	return "postgresql"
}

func (c *Container) openStore(ctx context.Context, cfg *config.Config) error {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:  cfg.Storage.S3Region,
			Bucket:  cfg.Storage.S3Bucket,
			Prefix:  cfg.Storage.S3Prefix,
			BaseURL: cfg.Storage.BaseURL,
		})
		if err != nil {
			return NewInitializationError("Failed to configure S3 storage", []string{err.Error()})
		}
		if err := s3Store.CheckBucketAccess(ctx); err != nil {
			c.logger.Warn("S3 bucket access failed, attachment downloads will fail", zap.Error(err))
		}
		c.store = s3Store
	default:
		local, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
		if err != nil {
			return NewInitializationError("Failed to configure local storage", []string{err.Error()})
		}
		c.store = local
	}
	return nil
}

// openCache connects to Redis when configured. A failed connection is
// logged and the service runs without the duplicate-submission guard.
func (c *Container) openCache(cfg *config.Config) {
	if cfg.Redis.Addr == "" {
		return
	}
	client, err := cache.NewRedisClient(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		c.logger.Warn("Redis unavailable, duplicate-submission guard disabled", zap.Error(err))
		return
	}
	c.cache = client
	c.OnCleanup(func(context.Context) error { return client.Close() })
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Logger returns the logger instance
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// Metrics returns the Prometheus metrics
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Cache returns the Redis client, or nil
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// Store returns the attachment store
func (c *Container) Store() storage.Store {
	return c.store
}

func (c *Container) Accounts() *service.AccountService { return c.accounts }

func (c *Container) Posts() *service.PostService { return c.posts }

func (c *Container) Analytics() *service.AnalyticsService { return c.analytics }

func (c *Container) Messages() *service.MessageService { return c.messages }

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order.
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup runs the registered cleanup functions, newest first. Failures
// are logged and do not stop the rest.
func (c *Container) Cleanup(ctx context.Context) {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			c.Logger().Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
		}
	}
}

// Validate checks that all required dependencies are registered.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if c.store == nil {
		missing = append(missing, "attachment store")
	}
	if c.accounts == nil || c.posts == nil || c.analytics == nil || c.messages == nil {
		missing = append(missing, "services")
	}

	if len(missing) > 0 {
		return NewInitializationError("Missing required dependencies", missing)
	}
	return nil
}
