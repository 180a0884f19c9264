package app

import (
	"fmt"
	"os"

	"github.com/dshills/faultline/internal/config"
	"github.com/dshills/faultline/internal/config/watcher"
	"github.com/dshills/faultline/internal/dispatcher"
	"github.com/dshills/faultline/internal/handlers/display"
	"github.com/dshills/faultline/internal/intercept"
	"github.com/dshills/faultline/internal/logging"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      app.opts,
		initOrder: make([]string, 0, 6),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initDispatcher,
		b.initInterceptor,
		b.initHandlers,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.logger.WithField("handlers", b.app.dispatcher.Len()).Info("started")
	return nil
}

// initConfig loads and validates the configuration.
func (b *bootstrapper) initConfig() error {
	cfg, err := config.Load(b.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if b.opts.LogLevel != "" {
		cfg.Logging.Level = b.opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogger builds the application logger.
func (b *bootstrapper) initLogger() error {
	cfg := b.app.config
	level, _ := cfg.LogLevel()

	out := b.opts.Stderr
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return &InitError{Component: "logger", Err: err}
		}
		b.app.logFile = f
		out = f
	}

	b.app.logger = logging.New(logging.Config{
		Level:  level,
		Output: out,
		Prefix: "faultline",
	})
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

// initDispatcher creates the dispatch engine and its display fallback.
func (b *bootstrapper) initDispatcher() error {
	cfg := b.app.config

	b.app.displayOut = b.opts.Stdout
	if cfg.Display.Output == "stderr" {
		b.app.displayOut = b.opts.Stderr
	}

	dc := dispatcher.DefaultConfig()
	if cfg.Dispatcher.Metrics {
		dc = dc.WithRegisterer(b.opts.Registerer)
	}

	d, err := dispatcher.New(dc,
		dispatcher.WithFallback(display.New(b.app.displayOut)),
		dispatcher.WithLogger(b.app.logger),
	)
	if err != nil {
		return &InitError{Component: "dispatcher", Err: err}
	}
	b.app.dispatcher = d
	b.initOrder = append(b.initOrder, "dispatcher")
	return nil
}

// initInterceptor creates the runtime adapters over the dispatcher.
func (b *bootstrapper) initInterceptor() error {
	cfg := b.app.config

	mask, err := cfg.EscalationMask()
	if err != nil {
		return &InitError{Component: "interceptor", Err: err}
	}
	b.app.interceptor = intercept.New(b.app.dispatcher,
		intercept.WithPolicy(intercept.MaskPolicy{Mask: mask}),
		intercept.WithMaxDepth(cfg.Trace.MaxDepth),
		intercept.WithLogger(b.app.logger),
	)
	b.initOrder = append(b.initOrder, "interceptor")
	return nil
}

// initHandlers registers the configured handlers.
func (b *bootstrapper) initHandlers() error {
	b.initOrder = append(b.initOrder, "handlers")
	if err := b.app.applyHandlers(b.app.config); err != nil {
		return &InitError{Component: "handlers", Err: err}
	}
	return nil
}

// initWatcher starts watching the config file when requested.
func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch || b.opts.ConfigPath == "" {
		return nil
	}

	w, err := watcher.New(watcher.WithLogger(b.app.logger))
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	if err := w.Watch(b.opts.ConfigPath); err != nil {
		_ = w.Close()
		return &InitError{Component: "watcher", Err: fmt.Errorf("watch %s: %w", b.opts.ConfigPath, err)}
	}
	w.OnChange(b.app.onConfigChange)
	w.Start()

	b.app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(component string) {
	switch component {
	case "watcher":
		if b.app.watcher != nil {
			_ = b.app.watcher.Close()
			b.app.watcher = nil
		}
	case "handlers":
		for id, slot := range b.app.handlers {
			b.app.dispatcher.Unregister(id)
			_ = slot.close()
		}
		clear(b.app.handlers)
	case "interceptor":
		b.app.interceptor = nil
	case "dispatcher":
		b.app.dispatcher = nil
	case "logger":
		if b.app.logFile != nil {
			_ = b.app.logFile.Close()
			b.app.logFile = nil
		}
	case "config":
		b.app.config = nil
	}
}
