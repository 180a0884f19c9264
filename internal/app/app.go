// Package app wires the faultline components together. It owns the single
// dispatcher of a process, the interceptor feeding it, the handlers built
// from configuration and the optional config file watcher.
package app

import (
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/faultline/internal/config"
	"github.com/dshills/faultline/internal/config/watcher"
	"github.com/dshills/faultline/internal/dispatcher"
	"github.com/dshills/faultline/internal/intercept"
	"github.com/dshills/faultline/internal/logging"
)

// Application is the composition root for a faultline process.
type Application struct {
	mu sync.RWMutex

	config      *config.Config
	logger      *logging.Logger
	logFile     io.Closer
	dispatcher  *dispatcher.Dispatcher
	interceptor *intercept.Interceptor
	watcher     *watcher.Watcher

	// Handlers registered from configuration, by id.
	handlers map[string]handlerSlot

	displayOut io.Writer
	closeOnce  sync.Once
	closed     bool

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file. Empty uses
	// defaults and the environment only.
	ConfigPath string

	// LogLevel overrides logging.level when set.
	LogLevel string

	// Stdout receives display output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives log output and display output when display.output is
	// "stderr". Defaults to os.Stderr.
	Stderr io.Writer

	// Registerer receives the dispatcher's Prometheus collectors when
	// dispatcher.metrics is on. Nil keeps metrics in memory.
	Registerer prometheus.Registerer

	// Watch reloads the configuration when ConfigPath changes.
	Watch bool
}

// New creates an Application from opts.
func New(opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{
		opts:     opts,
		handlers: make(map[string]handlerSlot),
	}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Dispatcher returns the dispatch engine.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Interceptor returns the runtime adapters feeding the dispatcher.
func (app *Application) Interceptor() *intercept.Interceptor {
	return app.interceptor
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Close reports any recorded fatal fault through the shutdown adapter, then
// stops the watcher and releases handler resources. Only the first call has
// an effect.
func (app *Application) Close() error {
	var errs ErrorList
	app.closeOnce.Do(func() {
		app.interceptor.Shutdown()

		if app.watcher != nil {
			errs.Add(app.watcher.Close())
		}

		app.mu.Lock()
		defer app.mu.Unlock()
		app.closed = true

		for id, slot := range app.handlers {
			app.dispatcher.Unregister(id)
			errs.Add(slot.close())
		}
		clear(app.handlers)

		app.logger.Debug("closed")
		if app.logFile != nil {
			errs.Add(app.logFile.Close())
		}
	})
	return errs.AsError()
}
