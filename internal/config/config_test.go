package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/faultline/internal/config"
	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())

	cfg, err = config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Trace.MaxDepth)
	assert.Equal(t, "stdout", cfg.Display.Output)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "faultline.toml", `
[display]
verbose = true

[logging]
level = "debug"

[escalation]
severities = ["errors", "UserWarning"]

[[handlers]]
id = "audit"
type = "jsonl"
path = "/var/log/faults.jsonl"
priority = 50

[[handlers]]
id = "log"
type = "log"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Display.Verbose)
	assert.Equal(t, "stdout", cfg.Display.Output)
	assert.Equal(t, 8, cfg.Trace.MaxDepth)
	require.Len(t, cfg.Handlers, 2)
	assert.Equal(t, 50, cfg.Handlers[0].EffectivePriority())
	assert.Equal(t, config.DefaultHandlerPriority, cfg.Handlers[1].EffectivePriority())

	mask, err := cfg.EscalationMask()
	require.NoError(t, err)
	assert.True(t, mask.Has(fault.CoreError))
	assert.True(t, mask.Has(fault.UserWarning))
	assert.False(t, mask.Has(fault.Warning))

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, level)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "faultline.yml", `
trace:
  max_depth: 3
dispatcher:
  metrics: true
handlers:
  - id: hook
    type: lua
    script: "function handle(ev) return true end"
    priority: 0
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Trace.MaxDepth)
	assert.True(t, cfg.Dispatcher.Metrics)
	require.Len(t, cfg.Handlers, 1)
	assert.Equal(t, 0, cfg.Handlers[0].EffectivePriority())
}

func TestNumericBooleans(t *testing.T) {
	path := writeFile(t, "faultline.yaml", "display:\n  verbose: 1\ndispatcher:\n  metrics: 0\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Display.Verbose)
	assert.False(t, cfg.Dispatcher.Metrics)

	path = writeFile(t, "faultline.toml", "[display]\nverbose = 1\n")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Display.Verbose)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "faultline.toml", `
[display]
verbose = false
output = "stdout"
`)
	t.Setenv("FAULTLINE_DISPLAY_VERBOSE", "1")
	t.Setenv("FAULTLINE_DISPLAY_OUTPUT", "stderr")
	t.Setenv("FAULTLINE_TRACE_MAX_DEPTH", "2")
	t.Setenv("FAULTLINE_ESCALATE", "Warning,Notice")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Display.Verbose)
	assert.Equal(t, "stderr", cfg.Display.Output)
	assert.Equal(t, 2, cfg.Trace.MaxDepth)
	assert.Equal(t, []string{"Warning", "Notice"}, cfg.Escalation.Severities)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(writeFile(t, "faultline.json", `{}`))
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)

	_, err = config.Load(writeFile(t, "bad.toml", "[display\n"))
	assert.Error(t, err)

	_, err = config.Load(writeFile(t, "typed.yaml", "trace:\n  max_depth: deep\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Output = "printer"
	cfg.Logging.Level = "loud"
	cfg.Escalation.Severities = []string{"Catastrophe"}
	cfg.Trace.MaxDepth = -1
	cfg.Handlers = []config.HandlerConfig{
		{ID: "", Type: "log"},
		{ID: "a", Type: "jsonl"},
		{ID: "a", Type: "lua"},
		{ID: "b", Type: "smtp"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, config.IsValidationError(err))

	var errs config.ValidationErrors
	require.ErrorAs(t, err, &errs)
	var paths []string
	for _, e := range errs {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		"display.output",
		"logging.level",
		"escalation.severities",
		"trace.max_depth",
		"handlers[0].id",
		"handlers[1].path",
		"handlers[2].id",
		"handlers[2].script",
		"handlers[3].type",
	}, paths)
	assert.Contains(t, err.Error(), "invalid config: display.output: must be stdout or stderr")
}
