package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("FAULTLINE_DISPLAY_VERBOSE", "true")
	t.Setenv("FAULTLINE_TRACE_MAX_DEPTH", "3")
	t.Setenv("FAULTLINE_LOG_LEVEL", "debug")
	t.Setenv("FAULTLINE_ESCALATION_SEVERITIES", "errors, UserWarning,")

	config, err := NewEnvLoader(DefaultEnvPrefix).Load()
	require.NoError(t, err)

	v, _ := GetByPath(config, "display.verbose")
	assert.Equal(t, true, v)

	v, _ = GetByPath(config, "trace.max_depth")
	assert.Equal(t, int64(3), v)

	v, _ = GetByPath(config, "logging.level")
	assert.Equal(t, "debug", v)

	v, _ = GetByPath(config, "escalation.severities")
	assert.Equal(t, []any{"errors", "UserWarning"}, v)
}

func TestEnvLoader_MappingWins(t *testing.T) {
	t.Setenv("FAULTLINE_LOGGING_LEVEL", "warn")
	t.Setenv("FAULTLINE_LOG_LEVEL", "error")

	config, err := NewEnvLoader(DefaultEnvPrefix).Load()
	require.NoError(t, err)

	v, _ := GetByPath(config, "logging.level")
	assert.Equal(t, "error", v)
}

func TestEnvLoader_CustomMapping(t *testing.T) {
	t.Setenv("MYAPP_DEPTH", "5")
	t.Setenv("MYAPP_TAGS", "a,b")

	l := NewEnvLoaderWithMapping("MYAPP_", map[string]string{})
	l.AddMapping("MYAPP_DEPTH", "trace.max_depth")
	l.AddMapping("MYAPP_TAGS", "meta.tags")
	l.AddList("meta.tags")

	config, err := l.Load()
	require.NoError(t, err)

	v, _ := GetByPath(config, "trace.max_depth")
	assert.Equal(t, int64(5), v)
	v, _ = GetByPath(config, "meta.tags")
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestEnvToPath(t *testing.T) {
	l := NewEnvLoader("FAULTLINE_")
	tests := map[string]string{
		"FAULTLINE_DISPLAY_VERBOSE":    "display.verbose",
		"FAULTLINE_TRACE_MAX_DEPTH":    "trace.max_depth",
		"FAULTLINE_DISPATCHER_METRICS": "dispatcher.metrics",
		"FAULTLINE_CONFIG":             "config",
	}
	for env, want := range tests {
		assert.Equal(t, want, l.envToPath(env), env)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"Yes", true},
		{"off", false},
		{"42", int64(42)},
		{"1", int64(1)},
		{"2.5", 2.5},
		{`["a","b"]`, []any{"a", "b"}},
		{"stderr", "stderr"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.in), tt.in)
	}
}
