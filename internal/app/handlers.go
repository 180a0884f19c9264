package app

import (
	"fmt"
	"io"

	"github.com/dshills/faultline/internal/config"
	"github.com/dshills/faultline/internal/dispatcher"
	"github.com/dshills/faultline/internal/handlers/display"
	"github.com/dshills/faultline/internal/handlers/jsonl"
	"github.com/dshills/faultline/internal/handlers/logsink"
	"github.com/dshills/faultline/internal/handlers/luahook"
	"github.com/dshills/faultline/internal/logging"
)

// DisplayHandlerID is the id of the display handler registered when
// display.verbose is on.
const DisplayHandlerID = "display"

// handlerSlot tracks a handler registered from configuration.
type handlerSlot struct {
	cfg    config.HandlerConfig
	closer io.Closer
}

func (s handlerSlot) close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// desiredHandlers lists the handlers cfg asks for, the verbose display
// handler first.
func desiredHandlers(cfg *config.Config) []config.HandlerConfig {
	var out []config.HandlerConfig
	if cfg.Display.Verbose && !hasHandler(cfg.Handlers, DisplayHandlerID) {
		out = append(out, config.HandlerConfig{ID: DisplayHandlerID, Type: config.HandlerDisplay})
	}
	return append(out, cfg.Handlers...)
}

func hasHandler(hcs []config.HandlerConfig, id string) bool {
	for _, hc := range hcs {
		if hc.ID == id {
			return true
		}
	}
	return false
}

// sameHandler reports whether two configs build the same handler, ignoring
// priority.
func sameHandler(a, b config.HandlerConfig) bool {
	return a.Type == b.Type && a.Path == b.Path && a.Script == b.Script && a.Claim == b.Claim
}

// applyHandlers brings the registered handlers in line with cfg. Handlers
// whose definition is unchanged keep their registration and only get their
// priority updated; changed ones are rebuilt in place; handlers no longer
// configured are unregistered and closed. Handlers registered directly on
// the dispatcher are left alone.
func (app *Application) applyHandlers(cfg *config.Config) error {
	var errs ErrorList
	keep := make(map[string]bool)

	for _, hc := range desiredHandlers(cfg) {
		keep[hc.ID] = true
		priority := hc.EffectivePriority()

		cur, exists := app.handlers[hc.ID]
		if exists && sameHandler(cur.cfg, hc) {
			app.dispatcher.SetPriority(hc.ID, priority)
			app.handlers[hc.ID] = handlerSlot{cfg: hc, closer: cur.closer}
			continue
		}

		h, closer, err := app.buildHandler(hc)
		if err != nil {
			errs.Add(&HandlerError{ID: hc.ID, Type: hc.Type, Err: err})
			continue
		}
		if err := app.dispatcher.Register(hc.ID, h, priority); err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			errs.Add(&HandlerError{ID: hc.ID, Type: hc.Type, Err: err})
			continue
		}
		if exists {
			errs.Add(cur.close())
		}
		app.handlers[hc.ID] = handlerSlot{cfg: hc, closer: closer}

		app.logger.WithFields(map[string]any{
			"handler":  hc.ID,
			"type":     hc.Type,
			"priority": priority,
		}).Debug("handler configured")
	}

	for id, slot := range app.handlers {
		if keep[id] {
			continue
		}
		app.dispatcher.Unregister(id)
		errs.Add(slot.close())
		delete(app.handlers, id)
		app.logger.WithField("handler", id).Debug("handler removed")
	}

	return errs.AsError()
}

// buildHandler creates the handler described by hc. The returned closer is
// nil for handlers holding no resources.
func (app *Application) buildHandler(hc config.HandlerConfig) (dispatcher.Handler, io.Closer, error) {
	switch hc.Type {
	case config.HandlerDisplay:
		return display.New(app.displayOut), nil, nil

	case config.HandlerLog:
		h := logsink.New(app.logger,
			logsink.WithClaim(hc.Claim),
			logsink.WithTraces(app.logger.Enabled(logging.LevelDebug)),
		)
		return h, nil, nil

	case config.HandlerJSONL:
		h, err := jsonl.Open(hc.Path, jsonl.WithClaim(hc.Claim))
		if err != nil {
			return nil, nil, err
		}
		return h, h, nil

	case config.HandlerLua:
		opts := []luahook.Option{luahook.WithLogger(app.logger)}
		var (
			h   *luahook.Handler
			err error
		)
		if hc.Script != "" {
			h, err = luahook.New(hc.ID, hc.Script, opts...)
		} else {
			h, err = luahook.Open(hc.Path, opts...)
		}
		if err != nil {
			return nil, nil, err
		}
		return h, h, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownHandlerType, hc.Type)
	}
}
