package intercept

import "github.com/dshills/faultline/internal/fault"

// EscalationPolicy decides whether a recoverable fault is turned into an
// exception instead of being dispatched.
type EscalationPolicy interface {
	Escalate(sev fault.Severity) bool
}

// PolicyFunc adapts a function to EscalationPolicy. Deprecations are still
// never escalated.
type PolicyFunc func(sev fault.Severity) bool

// Escalate implements EscalationPolicy.
func (f PolicyFunc) Escalate(sev fault.Severity) bool {
	if sev.Category() == fault.CategoryDeprecated {
		return false
	}
	return f(sev)
}

// MaskPolicy escalates severities contained in Mask.
type MaskPolicy struct {
	Mask fault.Mask
}

// Escalate implements EscalationPolicy. Deprecations are informational and
// are never escalated, whatever the mask says.
func (p MaskPolicy) Escalate(sev fault.Severity) bool {
	if sev.Category() == fault.CategoryDeprecated {
		return false
	}
	return p.Mask.Has(sev)
}

// NeverEscalate dispatches every recoverable fault.
var NeverEscalate EscalationPolicy = PolicyFunc(func(fault.Severity) bool { return false })
