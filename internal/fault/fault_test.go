package fault_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/trace"
)

func TestSeverityCategory(t *testing.T) {
	tests := []struct {
		sev  fault.Severity
		want fault.Category
	}{
		{fault.None, fault.CategoryNone},
		{fault.Error, fault.CategoryError},
		{fault.RecoverableError, fault.CategoryError},
		{fault.UserWarning, fault.CategoryWarning},
		{fault.Deprecated, fault.CategoryDeprecated},
		{fault.UserDeprecated, fault.CategoryDeprecated},
		{fault.Notice, fault.CategoryNotice},
		{fault.Strict, fault.CategoryNotice},
		{fault.Severity(1 << 20), fault.CategoryUnknown},
		{fault.Error | fault.Warning, fault.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.sev.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sev.Category())
		})
	}
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "None", fault.None.String())
	assert.Equal(t, "UserNotice", fault.UserNotice.String())
	assert.Equal(t, "Severity(99)", fault.Severity(99).String())
	assert.Equal(t, "Deprecated", fault.CategoryDeprecated.String())
	assert.Equal(t, "Unknown", fault.CategoryUnknown.String())
}

func TestParseSeverity(t *testing.T) {
	sev, err := fault.ParseSeverity("warning")
	require.NoError(t, err)
	assert.Equal(t, fault.Warning, sev)

	sev, err = fault.ParseSeverity("USER_DEPRECATED")
	require.NoError(t, err)
	assert.Equal(t, fault.UserDeprecated, sev)

	sev, err = fault.ParseSeverity("")
	require.NoError(t, err)
	assert.Equal(t, fault.None, sev)

	_, err = fault.ParseSeverity("catastrophe")
	assert.ErrorIs(t, err, fault.ErrUnknownSeverity)
}

func TestMask(t *testing.T) {
	m := fault.MaskOf(fault.Error, fault.Warning)
	assert.True(t, m.Has(fault.Error))
	assert.False(t, m.Has(fault.Notice))
	assert.False(t, m.Has(fault.None))
	assert.False(t, m.Without(fault.Error).Has(fault.Error))
	assert.True(t, fault.AllSeverities.Has(fault.UserDeprecated))

	parsed, err := fault.ParseMask([]string{"warnings", "notice"})
	require.NoError(t, err)
	assert.True(t, parsed.Has(fault.CoreWarning))
	assert.True(t, parsed.Has(fault.Notice))
	assert.False(t, parsed.Has(fault.UserNotice))

	all, err := fault.ParseMask([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, fault.AllSeverities, all)

	_, err = fault.ParseMask([]string{"bogus"})
	assert.Error(t, err)
}

func TestNewEvent(t *testing.T) {
	ev := fault.NewEvent(fault.Warning, "disk full").
		WithSource("store").
		WithLocation("/srv/store.go", 12).
		WithTrace("#0 {main}")

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.False(t, ev.Time.IsZero())
	assert.Equal(t, fault.CategoryWarning, ev.Category())
	assert.Equal(t, "store", ev.Source)
	assert.Equal(t, "/srv/store.go", ev.File)
	assert.Equal(t, 12, ev.Line)
	assert.False(t, ev.IsNone())
}

func TestExceptionCapturesRaiseSite(t *testing.T) {
	e := fault.NewException(fault.UserError, "bad input").WithCode(7)

	file, line := e.Location()
	assert.True(t, strings.HasSuffix(file, "fault_test.go"))
	assert.Greater(t, line, 0)
	assert.Equal(t, 7, e.Code())
	assert.Equal(t, fault.UserError, e.Severity())

	frames := e.StackFrames()
	require.NotEmpty(t, frames)
	assert.Equal(t, "TestExceptionCapturesRaiseSite", frames[0].Function)
	assert.True(t, strings.HasPrefix(e.Trace(), "#0 "))
}

func TestExceptionCause(t *testing.T) {
	cause := errors.New("connection reset")
	e := fault.Raise(fault.Error, "query %d failed", 3).WithCause(cause)

	assert.Equal(t, "query 3 failed: connection reset", e.Error())
	assert.Equal(t, "query 3 failed", e.Message())
	assert.ErrorIs(t, e, cause)
}

func TestNilExceptionMethods(t *testing.T) {
	var e *fault.Exception
	require.NotPanics(t, func() {
		assert.Equal(t, "<nil>", e.Error())
		assert.Empty(t, e.Message())
		assert.Equal(t, fault.Error, e.Severity())
		assert.Zero(t, e.Code())
		assert.NoError(t, e.Unwrap())
		file, line := e.Location()
		assert.Empty(t, file)
		assert.Zero(t, line)
		assert.Nil(t, e.StackFrames())
		assert.Empty(t, e.Trace())
	})

	var p *fault.PanicError
	require.NotPanics(t, func() {
		assert.NoError(t, p.Unwrap())
		assert.Nil(t, p.StackFrames())
		assert.Empty(t, p.Trace())
	})
}

func TestSourceOf(t *testing.T) {
	e := fault.NewException(fault.Error, "x").WithCode(42)
	assert.Equal(t, "fault.Exception::42", fault.SourceOf(e))
	assert.Equal(t, "errors.errorString::0", fault.SourceOf(errors.New("plain")))
	assert.Equal(t, "", fault.SourceOf(nil))
}

func TestFromErrorPlainError(t *testing.T) {
	ev := fault.FromError(errors.New("plain failure"))

	assert.Equal(t, fault.Error, ev.Severity)
	assert.Equal(t, "plain failure", ev.Message)
	assert.Equal(t, "", ev.File)
	assert.Equal(t, 0, ev.Line)
	assert.Equal(t, "#0 {main}\n\tthrown in unknown on unknown", ev.Trace)
}

type located struct{}

func (located) Error() string              { return "located" }
func (located) Location() (string, int)    { return "/srv/api.go", 88 }
func (located) Severity() fault.Severity   { return fault.Warning }
func (located) Trace() string              { return "" }
func (located) StackFrames() []trace.Frame { return nil }

func TestFromErrorPlaceholderUsesLocation(t *testing.T) {
	ev := fault.FromError(located{})

	assert.Equal(t, fault.Warning, ev.Severity)
	assert.Equal(t, "fault_test.located::0", ev.Source)
	assert.Equal(t, "#0 {main}\n\tthrown in /srv/api.go on 88", ev.Trace)
}

func TestFromErrorNativeTrace(t *testing.T) {
	e := fault.NewException(fault.Error, "boom")
	ev := fault.FromError(e)

	assert.Equal(t, e.Trace(), ev.Trace)
	file, line := e.Location()
	assert.Equal(t, file, ev.File)
	assert.Equal(t, line, ev.Line)
}

func TestPanicError(t *testing.T) {
	var perr *fault.PanicError
	func() {
		defer func() {
			if r := recover(); r != nil {
				perr = fault.NewPanicError(r, trace.Capture(0))
			}
		}()
		panic(errors.New("exploded"))
	}()

	require.NotNil(t, perr)
	assert.Equal(t, "panic: exploded", perr.Error())
	assert.EqualError(t, perr.Unwrap(), "exploded")
	assert.Equal(t, fault.Error, perr.Severity())

	file, line := perr.Location()
	assert.True(t, strings.HasSuffix(file, "fault_test.go"))
	assert.Greater(t, line, 0)
	assert.NotEmpty(t, perr.Trace())
}
