package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of faultline environment variables.
const DefaultEnvPrefix = "FAULTLINE_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "FAULTLINE_")
	mapping map[string]string // Env var -> config path
	lists   map[string]bool   // Config paths whose values are comma-separated lists
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "FAULTLINE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		lists:   map[string]bool{"escalation.severities": true},
	}
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		lists:   make(map[string]bool),
	}
}

// defaultEnvMapping returns aliases that do not follow the
// SECTION_KEY naming scheme.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL": "logging.level",
		prefix + "LOG_FILE":  "logging.file",
		prefix + "VERBOSE":   "display.verbose",
		prefix + "ESCALATE":  "escalation.severities",
	}
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	// Prefixed variables following the naming scheme go first so explicit
	// mappings win when both are set.
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, l.prefix) {
			continue
		}

		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if _, mapped := l.mapping[name]; mapped {
			continue
		}

		// Convert FAULTLINE_TRACE_MAX_DEPTH to trace.max_depth
		path := l.envToPath(name)
		if path == "" {
			continue
		}
		setByPath(config, path, l.value(path, value))
	}

	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			setByPath(config, path, l.value(path, val))
		}
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// AddList marks a config path whose value is a comma-separated list.
func (l *EnvLoader) AddList(configPath string) {
	if l.lists == nil {
		l.lists = make(map[string]bool)
	}
	l.lists[configPath] = true
}

// envToPath converts FAULTLINE_TRACE_MAX_DEPTH to trace.max_depth: the first
// segment names the section, the rest the snake_case key.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok || section == "" || key == "" {
		return name
	}
	return section + "." + key
}

func (l *EnvLoader) value(path, s string) any {
	if l.lists[path] {
		return splitList(s)
	}
	return parseValue(s)
}

func splitList(s string) []any {
	var out []any
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)
	if lower == "true" || lower == "yes" || lower == "on" {
		return true
	}
	if lower == "false" || lower == "no" || lower == "off" {
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Floats only with a decimal point, so ints are not misread.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := splitPath(path)
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	if len(parts) > 0 {
		current[parts[len(parts)-1]] = value
	}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
