// Package luahook provides a fault handler implemented by a sandboxed Lua
// script.
//
// The script defines a global function handle(event) that receives a table
// with the fields id, time, severity, category, message, source, file, line
// and trace, and returns true to claim the event:
//
//	function handle(ev)
//	  if ev.category == "Deprecated" then
//	    log("ignoring " .. ev.message)
//	    return true
//	  end
//	  return false
//	end
//
// Only the base, table, string and math libraries are available. A global
// log(message) function writes to the handler's logger.
package luahook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/logging"
)

// DefaultTimeout bounds one call to handle.
const DefaultTimeout = time.Second

// Handler runs a Lua script for every fault event.
//
// gopher-lua states are not goroutine-safe; calls are serialized by mu.
type Handler struct {
	mu      sync.Mutex
	L       *lua.LState
	name    string
	timeout time.Duration
	logger  *logging.Logger
	closed  bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout sets the deadline for one call to handle.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger behind the script's log function.
func WithLogger(l *logging.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New compiles and runs script, which must define handle.
func New(name, script string, opts ...Option) (*Handler, error) {
	h := &Handler{
		name:    name,
		timeout: DefaultTimeout,
		logger:  logging.Null(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithField("script", name)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	installSandbox(L)
	L.SetGlobal("log", L.NewFunction(h.luaLog))
	h.L = L

	if err := h.load(script); err != nil {
		L.Close()
		return nil, err
	}
	return h, nil
}

// Open loads the script at path.
func Open(path string, opts ...Option) (*Handler, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("luahook: read script: %w", err)
	}
	return New(path, string(src), opts...)
}

func (h *Handler) load(script string) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	if err := h.protect(func() error { return h.L.DoString(script) }); err != nil {
		return h.wrap(ctx, err)
	}
	if fn := h.L.GetGlobal("handle"); fn.Type() != lua.LTFunction {
		return ErrNoHandleFunc
	}
	return nil
}

// HandleFault calls the script's handle function with ev. A Lua error or a
// timeout is returned as an error.
func (h *Handler) HandleFault(ev fault.Event) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	top := h.L.GetTop()
	defer h.L.SetTop(top)

	err := h.protect(func() error {
		return h.L.CallByParam(lua.P{
			Fn:      h.L.GetGlobal("handle"),
			NRet:    1,
			Protect: true,
		}, eventTable(h.L, ev))
	})
	if err != nil {
		return false, h.wrap(ctx, err)
	}
	return lua.LVAsBool(h.L.Get(-1)), nil
}

// Close releases the Lua state.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.L.Close()
	h.closed = true
	return nil
}

// Name returns the script name.
func (h *Handler) Name() string {
	return h.name
}

func (h *Handler) luaLog(L *lua.LState) int {
	h.logger.Info("%s", L.CheckString(1))
	return 0
}

// protect turns Go panics escaping the VM into errors.
func (h *Handler) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (h *Handler) wrap(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, h.name, h.timeout)
	}
	return fmt.Errorf("luahook: %s: %w", h.name, err)
}

func eventTable(L *lua.LState, ev fault.Event) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(ev.ID.String()))
	t.RawSetString("time", lua.LNumber(ev.Time.Unix()))
	t.RawSetString("severity", lua.LNumber(ev.Severity))
	t.RawSetString("severity_name", lua.LString(ev.Severity.String()))
	t.RawSetString("category", lua.LString(ev.Category().String()))
	t.RawSetString("message", lua.LString(ev.Message))
	t.RawSetString("source", lua.LString(ev.Source))
	t.RawSetString("file", lua.LString(ev.File))
	t.RawSetString("line", lua.LNumber(ev.Line))
	t.RawSetString("trace", lua.LString(ev.Trace))
	return t
}
