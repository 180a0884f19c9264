package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format decodes one file syntax into a generic map.
type Format struct {
	Name string

	decode   func(data []byte, out *map[string]any) error
	position func(err error) (line, column int)
}

// Supported formats.
var (
	TOML = Format{
		Name: "toml",
		decode: func(data []byte, out *map[string]any) error {
			return toml.Unmarshal(data, out)
		},
		position: tomlPosition,
	}
	YAML = Format{
		Name: "yaml",
		decode: func(data []byte, out *map[string]any) error {
			return yaml.Unmarshal(data, out)
		},
		position: yamlPosition,
	}
)

// FormatFor picks the format matching the extension of path.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, true
	case ".yaml", ".yml":
		return YAML, true
	}
	return Format{}, false
}

// Decode parses data read from source.
func (f Format) Decode(source string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := f.decode(data, &out); err != nil {
		serr := &SyntaxError{Source: source, Format: f.Name, Err: err}
		serr.Line, serr.Column = f.position(err)
		return nil, serr
	}
	return out, nil
}

func tomlPosition(err error) (int, int) {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		return derr.Position()
	}
	return 0, 0
}

// yamlPosition reads the line from messages like "yaml: line 3: ...".
func yamlPosition(err error) (int, int) {
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr != nil {
		return 0, 0
	}
	return line, 0
}
