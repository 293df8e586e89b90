package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// timeoutBody is sent by the timeout handler when a request runs too long.
const timeoutBody = `{"status":"fail","message":"request processing taking too long"}`

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

// App bundles the http server, the background events consumers
// and everything that must be released on exit.
type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp loads the configuration then builds the whole application.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookshelf configuration: %s", err)
	}

	if err = os.MkdirAll(config.LogFolder, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create logs folder %q: %s", config.LogFolder, err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))

	app := &App{
		logger:   logger,
		config:   config,
		cleanups: []func() error{flusher, logWriter.Close},
	}

	queue, archive, err := app.setupEvents()
	if err != nil {
		app.Clean()
		return nil, err
	}

	bookService := NewBookService(logger, config, clock, NewNanoIDGenerator(), NewMemoryBookStorage(logger), queue)
	stats := &Statistics{
		version:   config.GitTag,
		container: IsAppRunningInDocker(),
		started:   clock.Now(),
		runtime:   runtime.Version(),
		platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if stats.version == "" {
		stats.version = config.GitCommit
	}
	api := NewAPIHandler(logger, config, stats, clock, NewIDsHandler(), bookService)
	if archive != nil {
		api.WithEventArchive(archive)
	}

	app.server = app.newServer(api)
	return app, nil
}

// setupEvents connects the events queue and archive when events are enabled.
// Otherwise changes are dropped by a no-op queue and no archive is returned.
func (app *App) setupEvents() (Queuer, EventArchive, error) {
	config := app.config
	if !config.Events.Enable {
		return NewNopQueue(), nil, nil
	}

	redisClient, err := GetRedisClient(config)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s:%s: %s", config.Redis.Host, config.Redis.Port, err)
	}

	if err = os.MkdirAll(filepath.Dir(config.BoltDB.FilePath), 0o700); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("failed to create events archive folder: %s", err)
	}
	boltClient, err := GetBoltDBClient(config)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("failed to open events archive: %s", err)
	}

	queue := NewRedisQueue(redisClient, config.Events.QueuePrefix)
	archive := NewBoltEventArchive(app.logger, &config.BoltDB, boltClient)
	consumer := NewArchiveConsumer(app.logger, queue, archive)
	app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
		return consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	})

	// storages must be closed before the logs get flushed.
	app.cleanups = append([]func() error{redisClient.Close, archive.Close}, app.cleanups...)
	return queue, archive, nil
}

// newServer routes the api behind its middlewares stacks and a per request timeout.
func (app *App) newServer(api *APIHandler) *http.Server {
	public, ops := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})

	return &http.Server{
		Addr:           fmt.Sprintf("%s:%s", app.config.Server.Host, app.config.Server.Port),
		Handler:        http.TimeoutHandler(router, app.config.Server.RequestTimeout, timeoutBody),
		ReadTimeout:    app.config.Server.ReadTimeout,
		WriteTimeout:   app.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
		ConnContext:    SaveConnInContext,
	}
}

// Run serves until SIGINT or SIGTERM is received or the server fails.
func (app *App) Run() error {
	defer app.Clean()
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(sigCtx)
	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(sigCtx, gCtx))

	err := g.Wait()
	app.logger.Info("bookshelf server exited", zap.String("server.addr", app.server.Addr), zap.Error(err))
	return err
}

// Clean runs every cleanup in order and reports failures on stderr
// since the logger may already be closed.
func (app *App) Clean() {
	for _, cleanup := range app.cleanups {
		if err := cleanup(); err != nil {
			fmt.Fprintln(os.Stderr, "bookshelf cleanup:", err)
		}
	}
}

// Serve returns the errgroup task running the http server.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("bookshelf server listening", zap.String("server.addr", app.server.Addr))
		if err := app.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Stop returns the errgroup task which waits for the group to be done and
// shuts the server down gracefully, or forcibly past the shutdown timeout.
// It always returns nil so that only the Serve result is reported.
func (app *App) Stop(sigCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		reason := "server failure"
		if sigCtx.Err() != nil {
			reason = "stop signal"
		}
		app.logger.Info("bookshelf server shutting down", zap.String("reason", reason))

		ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()

		err := app.server.Shutdown(ctx)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("bookshelf server shut down gracefully")
			return nil
		}

		app.logger.Warn("graceful shutdown incomplete, closing connections", zap.Error(err))
		if cerr := app.server.Close(); cerr != nil {
			app.logger.Error("failed to close server", zap.Error(cerr))
		}
		return nil
	}
}

// ConsumeQueues starts every events consumer inside the group.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error { return consume(gCtx) })
		}
		return nil
	}
}
