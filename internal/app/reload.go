package app

import (
	"github.com/dshills/faultline/internal/config"
	"github.com/dshills/faultline/internal/config/watcher"
)

// Reload re-reads the configuration and re-applies the logging level and
// handler set. Escalation, trace depth, display output and metrics keep
// their startup values. An invalid configuration is rejected as a whole.
func (app *Application) Reload() error {
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return err
	}
	if app.opts.LogLevel != "" {
		cfg.Logging.Level = app.opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return ErrClosed
	}

	level, _ := cfg.LogLevel()
	app.logger.SetLevel(level)
	app.config = cfg

	if err := app.applyHandlers(cfg); err != nil {
		app.logger.Warn("configuration reloaded with errors: %v", err)
		return err
	}
	app.logger.WithField("handlers", app.dispatcher.Len()).Info("configuration reloaded")
	return nil
}

func (app *Application) onConfigChange(ev watcher.Event) {
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		app.logger.WithField("path", ev.Path).Warn("config file %s, keeping current configuration", ev.Op)
		return
	}
	if err := app.Reload(); err != nil {
		app.logger.WithField("path", ev.Path).Error("reload failed: %v", err)
	}
}
