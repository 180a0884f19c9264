// Package fault defines the normalized fault event, severity codes and the
// fault objects that carry their own stack traces.
package fault

import (
	"fmt"
	"strings"
)

// Severity is an open, bit-flag coded fault severity. Codes outside the
// known flags are valid and map to CategoryUnknown.
type Severity int

// Known severity flags.
const (
	None             Severity = 0
	Error            Severity = 1 << 0
	Warning          Severity = 1 << 1
	Parse            Severity = 1 << 2
	Notice           Severity = 1 << 3
	CoreError        Severity = 1 << 4
	CoreWarning      Severity = 1 << 5
	CompileError     Severity = 1 << 6
	CompileWarning   Severity = 1 << 7
	UserError        Severity = 1 << 8
	UserWarning      Severity = 1 << 9
	UserNotice       Severity = 1 << 10
	Strict           Severity = 1 << 11
	RecoverableError Severity = 1 << 12
	Deprecated       Severity = 1 << 13
	UserDeprecated   Severity = 1 << 14
)

var severityNames = map[Severity]string{
	Error:            "Error",
	Warning:          "Warning",
	Parse:            "Parse",
	Notice:           "Notice",
	CoreError:        "CoreError",
	CoreWarning:      "CoreWarning",
	CompileError:     "CompileError",
	CompileWarning:   "CompileWarning",
	UserError:        "UserError",
	UserWarning:      "UserWarning",
	UserNotice:       "UserNotice",
	Strict:           "Strict",
	RecoverableError: "RecoverableError",
	Deprecated:       "Deprecated",
	UserDeprecated:   "UserDeprecated",
}

// String returns the flag name, "None", or "Severity(n)" for unknown codes.
func (s Severity) String() string {
	if s == None {
		return "None"
	}
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Category maps the code onto the closed set of human categories.
func (s Severity) Category() Category {
	switch s {
	case None:
		return CategoryNone
	case Error, Parse, CoreError, CompileError, UserError, RecoverableError:
		return CategoryError
	case Warning, CoreWarning, CompileWarning, UserWarning:
		return CategoryWarning
	case Deprecated, UserDeprecated:
		return CategoryDeprecated
	case Notice, UserNotice, Strict:
		return CategoryNotice
	default:
		return CategoryUnknown
	}
}

// ParseSeverity parses a flag or category name, case-insensitively.
// Category names map to their base flag ("error" is Error).
func ParseSeverity(s string) (Severity, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	if key == "" || key == "none" {
		return None, nil
	}
	for sev, name := range severityNames {
		if strings.ToLower(name) == key {
			return sev, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

// Category is the human-facing grouping of severities.
type Category int

const (
	CategoryNone Category = iota
	CategoryError
	CategoryWarning
	CategoryDeprecated
	CategoryNotice
	CategoryUnknown
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "None"
	case CategoryError:
		return "Error"
	case CategoryWarning:
		return "Warning"
	case CategoryDeprecated:
		return "Deprecated"
	case CategoryNotice:
		return "Notice"
	default:
		return "Unknown"
	}
}

// Mask is a set of severities.
type Mask int

// AllSeverities contains every known flag.
const AllSeverities Mask = Mask(UserDeprecated<<1 - 1)

// MaskOf builds a mask from severities.
func MaskOf(sevs ...Severity) Mask {
	var m Mask
	for _, s := range sevs {
		m |= Mask(s)
	}
	return m
}

// Has reports whether every bit of s is in the mask. None is never
// contained.
func (m Mask) Has(s Severity) bool {
	return s != None && int(m)&int(s) == int(s)
}

// Without returns the mask with the bits of s cleared.
func (m Mask) Without(sevs ...Severity) Mask {
	for _, s := range sevs {
		m &^= Mask(s)
	}
	return m
}

// ParseMask parses a list of severity names. The plural category names
// "errors", "warnings", "deprecations" and "notices" select every flag of
// that category; "all" selects AllSeverities.
func ParseMask(names []string) (Mask, error) {
	var m Mask
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "all" {
			m |= AllSeverities
			continue
		}
		if cat, ok := parseCategory(key); ok {
			for sev := range severityNames {
				if sev.Category() == cat {
					m |= Mask(sev)
				}
			}
			continue
		}
		sev, err := ParseSeverity(name)
		if err != nil {
			return 0, err
		}
		m |= Mask(sev)
	}
	return m, nil
}

func parseCategory(key string) (Category, bool) {
	switch key {
	case "errors":
		return CategoryError, true
	case "warnings":
		return CategoryWarning, true
	case "deprecations":
		return CategoryDeprecated, true
	case "notices":
		return CategoryNotice, true
	default:
		return CategoryNone, false
	}
}
