package loader

import (
	"strconv"
	"strings"
)

// SyntaxError reports a configuration file that could not be decoded.
// Line and Column are 1-based; zero means unknown.
type SyntaxError struct {
	Source string
	Format string
	Line   int
	Column int
	Err    error
}

// Error renders the position compiler style, e.g. "app.toml:3:7: invalid
// toml: ...".
func (e *SyntaxError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Line > 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.Line))
		if e.Column > 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(e.Column))
		}
	}
	b.WriteString(": invalid ")
	b.WriteString(e.Format)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
