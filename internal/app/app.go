package app

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"integration-gateway/internal/brokers"
	redisbroker "integration-gateway/internal/brokers/redis"
	"integration-gateway/internal/cache"
	"integration-gateway/internal/common/errors"
	httpclient "integration-gateway/internal/common/http"
	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/config"
	"integration-gateway/internal/dispatch"
	"integration-gateway/internal/executor"
	"integration-gateway/internal/fingerprint"
	"integration-gateway/internal/handlers"
	"integration-gateway/internal/integration"
	"integration-gateway/internal/redis"
	"integration-gateway/internal/worker"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	RedisClient *redis.Client
	Store       cache.Store
	Broker      brokers.Broker
	Executor    *executor.HTTPExecutor
	Dispatcher  *integration.Dispatcher
	Worker      *worker.Worker
	Logger      logging.Logger

	registry *brokers.Registry
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logging.Component("app"),
		registry: brokers.NewRegistry(),
	}
	RegisterBrokerFactories(app.registry)

	// Initialize components in order of dependency
	if err := app.initializeRedis(); err != nil {
		app.Cleanup()
		return nil, err
	}
	if err := app.initializeCache(); err != nil {
		app.Cleanup()
		return nil, err
	}
	if err := app.initializeBroker(); err != nil {
		app.Cleanup()
		return nil, err
	}
	if err := app.initializeCore(); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

func (app *App) needsRedis() bool {
	switch {
	case app.Config.CacheType == string(cache.TypeRedis), app.Config.CacheType == string(cache.TypeTiered):
		return true
	case app.Config.BrokerType == "redis":
		return true
	}
	return false
}

func (app *App) initializeRedis() error {
	if !app.needsRedis() {
		app.Logger.Info("Redis: not required by cache or broker")
		return nil
	}

	client, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDB,
		PoolSize: app.Config.RedisPoolSize,
	})
	if err != nil {
		return errors.ConnectionError("failed to connect to redis", err)
	}

	app.RedisClient = client
	app.Logger.Info("Redis: connected", logging.String("address", app.Config.RedisAddress))
	return nil
}

func (app *App) initializeCache() error {
	cacheConfig := cache.Config{
		Type:       cache.Type(app.Config.CacheType),
		DefaultTTL: app.Config.DefaultCacheTTL(),
		L1MaxTTL:   app.Config.CacheL1MaxTTL,
		KeyPrefix:  app.Config.CacheKeyPrefix,
	}
	if app.RedisClient != nil {
		cacheConfig.RedisClient = app.RedisClient.Raw()
	}

	store, err := cache.New(cacheConfig)
	if err != nil {
		return errors.ConfigError(err.Error())
	}

	app.Store = store
	app.Logger.Info("Cache: initialized",
		logging.String("type", app.Config.CacheType),
		logging.Duration("default_ttl", app.Config.DefaultCacheTTL()),
	)
	return nil
}

func (app *App) initializeBroker() error {
	brokerConfig, err := BrokerConfig(app.Config)
	if err != nil {
		return err
	}

	var broker brokers.Broker
	if redisConfig, ok := brokerConfig.(*redisbroker.Config); ok && app.RedisClient != nil {
		// share the cache connection pool
		broker, err = redisbroker.NewBrokerWithClient(redisConfig, app.RedisClient.Raw())
	} else {
		broker, err = app.registry.Create(app.Config.BrokerType, brokerConfig)
	}
	if err != nil {
		return err
	}

	app.Broker = broker
	app.Logger.Info("Broker: initialized",
		logging.String("type", app.Config.BrokerType),
		logging.String("connection", brokerConfig.GetConnectionString()),
	)
	return nil
}

func (app *App) initializeCore() error {
	fingerprints, err := fingerprint.NewJWTGenerator(app.Config.FingerprintSecret)
	if err != nil {
		return errors.ConfigError(err.Error())
	}

	client := httpclient.NewHTTPClientWrapper(
		httpclient.WithTimeout(app.Config.HTTPClientTimeout),
		httpclient.WithMaxResponseSize(app.Config.MaxResponseMemorySize),
	)

	app.Executor = executor.NewHTTPExecutor(client, fingerprints, app.Store, executor.Options{
		TTL:          cache.TTLPolicy{Default: app.Config.DefaultCacheTTL()},
		WriteTimeout: app.Config.CacheWriteTimeout,
	})

	app.Dispatcher, err = integration.NewDispatcher(integration.Dependencies{
		Queue:        dispatch.NewBrokerQueue(app.Broker),
		Executor:     app.Executor,
		Store:        app.Store,
		Fingerprints: fingerprints,
		Topic:        app.Config.QueueCreateTopic,
	})
	if err != nil {
		return err
	}

	if app.Config.WorkerEnabled {
		app.Worker = worker.New(app.Broker, app.Config.QueueCreateTopic, app.Executor)
	}
	return nil
}

// Handler returns the HTTP handler with all routes configured
func (app *App) Handler() http.Handler {
	checks := map[string]handlers.HealthCheck{
		"cache": app.Store.Health,
		"broker": func(context.Context) error {
			return app.Broker.Health()
		},
	}
	if app.Worker != nil {
		checks["worker"] = func(context.Context) error {
			return app.Worker.Health()
		}
	}

	router := mux.NewRouter()
	SetupRoutes(router, handlers.New(app.Dispatcher, checks))
	return router
}

// Start launches background components
func (app *App) Start(ctx context.Context) error {
	if app.Worker == nil {
		return nil
	}
	return app.Worker.Start(ctx)
}

// Shutdown stops background components and waits for pending cache writes
func (app *App) Shutdown(ctx context.Context) error {
	if app.Worker != nil && app.Worker.IsRunning() {
		if err := app.Worker.Stop(); err != nil {
			app.Logger.Warn("Error stopping worker", logging.Err(err))
		}
	}

	if app.Executor == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		app.Executor.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.Logger.Info("Pending cache writes flushed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Broker != nil {
		if err := app.Broker.Close(); err != nil {
			app.Logger.Warn("Error closing broker", logging.Err(err))
		}
	}
	if app.Store != nil {
		app.Store.Close()
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
