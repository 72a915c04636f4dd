package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	xhttp "PerpDash/pkg/http"
	applogger "PerpDash/pkg/logger"
)

// Worker is a background loop that runs until its context is cancelled.
type Worker interface {
	Run(ctx context.Context)
}

// App encapsulates the entire application lifecycle.
type App struct {
	log        *applogger.Logger
	httpServer *xhttp.Server
	workers    []Worker
}

// New creates a new App instance with all dependencies.
func New(log *applogger.Logger, httpServer *xhttp.Server, workers ...Worker) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		log:        log,
		httpServer: httpServer,
		workers:    workers,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and workers and shuts both down once ctx is done.
// Infrastructure clients are closed by the DI cleanup.
func (a *App) RunContext(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range a.workers {
		if w == nil {
			continue
		}
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			w.Run(workerCtx)
		}(w)
	}
	a.log.Info("background workers started", applogger.Int("count", len(a.workers)))

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		wg.Wait()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	cancel()
	wg.Wait()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
