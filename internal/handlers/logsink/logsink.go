// Package logsink provides a fault handler that writes events to the
// structured logger.
package logsink

import (
	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/handlers/display"
	"github.com/dshills/faultline/internal/logging"
)

// Handler logs each event at a level derived from its category.
type Handler struct {
	logger     *logging.Logger
	claim      bool
	withTraces bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithClaim makes the handler report events as handled, stopping dispatch.
// By default it only observes.
func WithClaim(claim bool) Option {
	return func(h *Handler) {
		h.claim = claim
	}
}

// WithTraces includes the trace block in the log message.
func WithTraces(on bool) Option {
	return func(h *Handler) {
		h.withTraces = on
	}
}

// New creates a log sink writing to logger.
func New(logger *logging.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.Null()
	}
	h := &Handler{logger: logger.WithComponent("fault")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LevelFor maps a fault category to a log level.
func LevelFor(c fault.Category) logging.Level {
	switch c {
	case fault.CategoryError:
		return logging.LevelError
	case fault.CategoryWarning, fault.CategoryUnknown:
		return logging.LevelWarn
	case fault.CategoryNotice, fault.CategoryDeprecated:
		return logging.LevelInfo
	default:
		return logging.LevelDebug
	}
}

// HandleFault logs ev.
func (h *Handler) HandleFault(ev fault.Event) (bool, error) {
	fields := map[string]any{
		"id":       ev.ID,
		"severity": ev.Severity,
		"at":       display.Location(ev),
	}
	if ev.Source != "" {
		fields["source"] = ev.Source
	}

	msg := ev.Message
	if h.withTraces && ev.Trace != "" {
		msg += "\n" + ev.Trace
	}
	h.logger.WithFields(fields).Log(LevelFor(ev.Category()), "%s", msg)
	return h.claim, nil
}
