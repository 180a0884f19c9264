package loader

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_LoadTOML(t *testing.T) {
	fsys := fstest.MapFS{
		"faultline.toml": {Data: []byte(`
[display]
verbose = true

[trace]
max_depth = 4

[[handlers]]
id = "audit"
type = "jsonl"
priority = 50
`)},
	}

	config, err := NewFile(fsys, "faultline.toml", TOML).Load()
	require.NoError(t, err)

	v, ok := GetByPath(config, "display.verbose")
	require.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = GetByPath(config, "trace.max_depth")
	require.True(t, ok)
	assert.Equal(t, int64(4), v)

	handlers, ok := config["handlers"].([]any)
	require.True(t, ok)
	require.Len(t, handlers, 1)
	assert.Equal(t, "audit", handlers[0].(map[string]any)["id"])
}

func TestFile_LoadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"faultline.yaml": {Data: []byte(`
display:
  verbose: true
  output: stderr
escalation:
  severities: [errors, UserWarning]
handlers:
  - id: script
    type: lua
    path: hooks/handle.lua
`)},
	}

	config, err := NewFile(fsys, "faultline.yaml", YAML).Load()
	require.NoError(t, err)

	v, _ := GetByPath(config, "display.output")
	assert.Equal(t, "stderr", v)

	v, _ = GetByPath(config, "escalation.severities")
	assert.Equal(t, []any{"errors", "UserWarning"}, v)

	handlers := config["handlers"].([]any)
	assert.Equal(t, "lua", handlers[0].(map[string]any)["type"])
}

func TestFile_MissingFile(t *testing.T) {
	for _, format := range []Format{TOML, YAML} {
		config, err := NewFile(fstest.MapFS{}, "missing."+format.Name, format).Load()
		assert.NoError(t, err, format.Name)
		assert.Nil(t, config, format.Name)
	}
}

func TestFile_TOMLSyntaxError(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.toml": {Data: []byte("[display]\nverbose = = true\n")},
	}

	_, err := NewFile(fsys, "bad.toml", TOML).Load()
	require.Error(t, err)

	var serr *SyntaxError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "bad.toml", serr.Source)
	assert.Equal(t, "toml", serr.Format)
	assert.Equal(t, 2, serr.Line)
	assert.Contains(t, err.Error(), "bad.toml:2:")
}

func TestFormat_DecodeYAMLSyntaxError(t *testing.T) {
	_, err := YAML.Decode("stdin", []byte("display: [unclosed"))
	require.Error(t, err)

	var serr *SyntaxError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "stdin", serr.Source)
	assert.Equal(t, "yaml", serr.Format)
	assert.Greater(t, serr.Line, 0)
}

func TestFormatFor(t *testing.T) {
	tests := map[string]string{
		"/etc/faultline.toml": "toml",
		"app.YAML":            "yaml",
		"app.yml":             "yaml",
	}
	for path, want := range tests {
		f, ok := FormatFor(path)
		require.True(t, ok, path)
		assert.Equal(t, want, f.Name, path)
	}

	_, ok := FormatFor("app.json")
	assert.False(t, ok)
}

func TestSyntaxError_Error(t *testing.T) {
	cause := errors.New("m")
	tests := []struct {
		err  *SyntaxError
		want string
	}{
		{&SyntaxError{Source: "a", Format: "toml", Err: cause}, "a: invalid toml: m"},
		{&SyntaxError{Source: "a", Format: "yaml", Line: 3, Err: cause}, "a:3: invalid yaml: m"},
		{&SyntaxError{Source: "a", Format: "toml", Line: 3, Column: 7, Err: cause}, "a:3:7: invalid toml: m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
		assert.ErrorIs(t, tt.err, cause)
	}
}
