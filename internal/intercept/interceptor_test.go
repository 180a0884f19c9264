package intercept_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/faultline/internal/dispatcher"
	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/intercept"
)

// sink records dispatched events.
type sink struct {
	mu     sync.Mutex
	result bool
	events []fault.Event
}

func (s *sink) Dispatch(ev fault.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.result
}

func (s *sink) last(t *testing.T) fault.Event {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.events)
	return s.events[len(s.events)-1]
}

func TestReportDispatches(t *testing.T) {
	s := &sink{result: true}
	ic := intercept.New(s)

	handled, err := ic.Report(fault.Warning, "disk full", "/srv/store.go", 12)
	require.NoError(t, err)
	assert.True(t, handled)

	ev := s.last(t)
	assert.Equal(t, fault.Warning, ev.Severity)
	assert.Equal(t, "disk full", ev.Message)
	assert.Equal(t, "/srv/store.go", ev.File)
	assert.Equal(t, 12, ev.Line)
	assert.Empty(t, ev.Source)
	assert.NotEqual(t, uuid.Nil, ev.ID)
}

func TestReportSeverityNone(t *testing.T) {
	s := &sink{result: true}
	ic := intercept.New(s)

	handled, err := ic.Report(fault.None, "nothing", "", 0)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, s.events)
}

func TestReportfLocatesCaller(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	handled, err := ic.Reportf(fault.Notice, "retry %d of %d", 2, 3)
	require.NoError(t, err)
	assert.False(t, handled)

	ev := s.last(t)
	assert.Equal(t, "retry 2 of 3", ev.Message)
	assert.True(t, strings.HasSuffix(ev.File, "interceptor_test.go"), ev.File)
	assert.Positive(t, ev.Line)
}

func TestReportEscalates(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s, intercept.WithPolicy(intercept.MaskPolicy{
		Mask: fault.MaskOf(fault.Warning, fault.Deprecated),
	}))

	handled, err := ic.Report(fault.Warning, "bad input", "/srv/in.go", 7)
	assert.False(t, handled)
	require.Error(t, err)
	assert.Empty(t, s.events)

	var ex *fault.Exception
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, fault.Warning, ex.Severity())
	file, line := ex.Location()
	assert.Equal(t, "/srv/in.go", file)
	assert.Equal(t, 7, line)
	require.NotEmpty(t, ex.StackFrames())
	assert.Equal(t, "TestReportEscalates", ex.StackFrames()[0].Function)

	// The escalated fault comes back through the uncaught adapter.
	ic.Uncaught(err)
	ev := s.last(t)
	assert.Equal(t, "fault.Exception::0", ev.Source)
	assert.Equal(t, "bad input", ev.Message)
	assert.Contains(t, ev.Trace, "TestReportEscalates")
}

func TestDeprecatedNeverEscalated(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s, intercept.WithPolicy(intercept.MaskPolicy{Mask: fault.AllSeverities}))

	_, err := ic.Report(fault.UserDeprecated, "old call", "", 0)
	require.NoError(t, err)
	assert.Len(t, s.events, 1)

	_, err = ic.Report(fault.Notice, "note", "", 0)
	assert.Error(t, err)
}

func TestPolicyFunc(t *testing.T) {
	p := intercept.PolicyFunc(func(fault.Severity) bool { return true })
	assert.True(t, p.Escalate(fault.Error))
	assert.False(t, p.Escalate(fault.Deprecated))
	assert.False(t, intercept.NeverEscalate.Escalate(fault.Error))
}

type coded struct{ msg string }

func (c coded) Error() string            { return c.msg }
func (c coded) Code() int                { return 503 }
func (c coded) Severity() fault.Severity { return fault.UserWarning }

func TestUncaught(t *testing.T) {
	s := &sink{result: true}
	ic := intercept.New(s)

	assert.True(t, ic.Uncaught(coded{msg: "upstream down"}))
	ev := s.last(t)
	assert.Equal(t, fault.UserWarning, ev.Severity)
	assert.Equal(t, "intercept_test.coded::503", ev.Source)
	assert.Equal(t, "#0 {main}\n\tthrown in unknown on unknown", ev.Trace)

	assert.False(t, ic.Uncaught(nil))
	assert.Len(t, s.events, 1)
}

func TestUncaughtPlainErrorDefaultsToError(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	ic.Uncaught(errors.New("boom"))
	ev := s.last(t)
	assert.Equal(t, fault.Error, ev.Severity)
	assert.Equal(t, "boom", ev.Message)
}

func TestShutdownWithoutFault(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	assert.True(t, ic.Shutdown())
	assert.Empty(t, s.events)
}

func TestShutdownReportsFatalOnce(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	ic.Fatal(fault.CoreError, "out of memory", "", 0)
	_, ok := ic.Recorder().Last()
	require.True(t, ok)
	assert.Empty(t, s.events)

	assert.True(t, ic.Shutdown())
	require.Len(t, s.events, 1)
	ev := s.events[0]
	assert.Equal(t, intercept.ShutdownSource, ev.Source)
	assert.Equal(t, fault.CoreError, ev.Severity)
	assert.Equal(t, "out of memory", ev.Message)
	assert.Equal(t, fault.Unknown, ev.File)
	assert.Equal(t, 0, ev.Line)
	assert.True(t, strings.HasPrefix(ev.Trace, "#1 "), ev.Trace)
	assert.Contains(t, ev.Trace, "TestShutdownReportsFatalOnce")

	assert.True(t, ic.Shutdown())
	assert.Len(t, s.events, 1)
}

func TestShutdownKeepsRecordedLocation(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	ic.Fatal(fault.Error, "stack overflow", "/srv/deep.go", 99)
	ic.Shutdown()

	ev := s.last(t)
	assert.Equal(t, "/srv/deep.go", ev.File)
	assert.Equal(t, 99, ev.Line)
}

func TestGuardRecoversPanic(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	assert.False(t, ic.Guard(func() {}))
	assert.Empty(t, s.events)

	assert.True(t, ic.Guard(func() { panic("index out of range") }))
	ev := s.last(t)
	assert.Equal(t, fault.Error, ev.Severity)
	assert.Equal(t, "panic: index out of range", ev.Message)
	assert.Equal(t, "fault.PanicError::0", ev.Source)
	assert.Contains(t, ev.Trace, "TestGuardRecoversPanic")

	// Recovered panics are not left behind for Shutdown.
	_, ok := ic.Recorder().Last()
	assert.False(t, ok)
}

func TestGuardPassesExceptionsThrough(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	ic.Guard(func() {
		panic(fault.NewException(fault.UserError, "rejected").WithCode(4))
	})
	ev := s.last(t)
	assert.Equal(t, fault.UserError, ev.Severity)
	assert.Equal(t, "fault.Exception::4", ev.Source)
}

func TestTryReportsHandled(t *testing.T) {
	s := &sink{result: true}
	ic := intercept.New(s)

	recovered, handled := ic.Try(func() {})
	assert.False(t, recovered)
	assert.False(t, handled)

	recovered, handled = ic.Try(func() {
		panic(fault.NewException(fault.Warning, "stale cache").WithLocation("/srv/cache.go", 9))
	})
	assert.True(t, recovered)
	assert.True(t, handled)
	ev := s.last(t)
	assert.Equal(t, fault.Warning, ev.Severity)
	assert.Equal(t, "/srv/cache.go", ev.File)
	assert.Equal(t, 9, ev.Line)

	s.result = false
	_, handled = ic.Try(func() { panic("lost") })
	assert.False(t, handled)
}

func TestRecoverDeferred(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	func() {
		defer ic.Recover()
		panic(errors.New("nil map"))
	}()

	ev := s.last(t)
	assert.Equal(t, "panic: nil map", ev.Message)
}

func TestNilExceptionBecomesPanicError(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	var recovered bool
	require.NotPanics(t, func() {
		recovered = ic.Guard(func() { panic((*fault.Exception)(nil)) })
	})
	assert.True(t, recovered)
	ev := s.last(t)
	assert.Equal(t, fault.Error, ev.Severity)
	assert.Equal(t, "fault.PanicError::0", ev.Source)
	assert.Equal(t, "panic: <nil>", ev.Message)

	require.NotPanics(t, func() {
		func() {
			defer ic.Recover()
			panic((*fault.Exception)(nil))
		}()
	})
	assert.Len(t, s.events, 2)
	assert.Equal(t, "fault.PanicError::0", s.last(t).Source)
}

func TestUncaughtNilException(t *testing.T) {
	s := &sink{}
	ic := intercept.New(s)

	var err error = (*fault.Exception)(nil)
	require.NotPanics(t, func() { ic.Uncaught(err) })
	ev := s.last(t)
	assert.Equal(t, "fault.PanicError::0", ev.Source)
	assert.Equal(t, "panic: <nil>", ev.Message)
	assert.NotEmpty(t, ev.Trace)
}

func TestGoRecoversInGoroutine(t *testing.T) {
	done := make(chan fault.Event, 1)
	ic := intercept.New(sinkFunc(func(ev fault.Event) bool {
		done <- ev
		return true
	}))

	ic.Go(func() { panic("worker died") })

	ev := <-done
	assert.Equal(t, "panic: worker died", ev.Message)
}

type sinkFunc func(fault.Event) bool

func (f sinkFunc) Dispatch(ev fault.Event) bool { return f(ev) }

func TestInterceptorWithDispatcher(t *testing.T) {
	d := dispatcher.NewWithDefaults(dispatcher.WithFallback(sinkHandler(nil)))
	var got []string
	require.NoError(t, d.RegisterFunc("collect", func(ev fault.Event) (bool, error) {
		got = append(got, ev.Category().String()+": "+ev.Message)
		return true, nil
	}, dispatcher.DefaultPriority))

	ic := intercept.New(d)
	handled, err := ic.Report(fault.UserNotice, "cache warm", "c.go", 1)
	require.NoError(t, err)
	assert.True(t, handled)

	ic.Fatal(fault.Error, "fatal", "f.go", 2)
	ic.Shutdown()

	assert.Equal(t, []string{"Notice: cache warm", "Error: fatal"}, got)
}

func sinkHandler(events *[]fault.Event) dispatcher.HandlerFunc {
	return func(ev fault.Event) (bool, error) {
		if events != nil {
			*events = append(*events, ev)
		}
		return true, nil
	}
}

func TestMemoryRecorder(t *testing.T) {
	r := intercept.NewMemoryRecorder()
	_, ok := r.Last()
	assert.False(t, ok)

	r.Record(intercept.Record{Severity: fault.Error, Message: "first"})
	r.Record(intercept.Record{Severity: fault.Warning, Message: "second"})
	rec, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "second", rec.Message)
	assert.False(t, rec.Time.IsZero())

	r.Clear()
	_, ok = r.Last()
	assert.False(t, ok)
}
