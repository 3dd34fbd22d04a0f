package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NatalChart/pkg/config"
	xhttp "NatalChart/pkg/http"
	pkgkafka "NatalChart/pkg/kafka"
	applogger "NatalChart/pkg/logger"
)

// Closer releases an infrastructure resource on shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// Sweeper drops idle per-client state, e.g. rate limiter buckets.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	sweeper    Sweeper
	closers    []Closer
}

// Deps groups what the App runs. Consumer, Handler and Sweeper are optional.
type Deps struct {
	HTTP     *xhttp.Server
	Consumer *pkgkafka.Consumer
	Handler  pkgkafka.MessageHandler
	Sweeper  Sweeper
	Closers  []Closer
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, d Deps) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: d.HTTP,
		consumer:   d.Consumer,
		kh:         d.Handler,
		sweeper:    d.Sweeper,
		closers:    d.Closers,
	}
}

// Run starts the application and blocks until ctx is done or the process
// receives SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	if a.sweeper != nil {
		go a.sweep(ctx)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sweeper.Sweep(10 * time.Minute); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown stops intake first, then closes infrastructure in reverse order
// of construction.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
