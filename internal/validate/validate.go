// Package validate decides pass/fail for a module's current answer. It is a
// pure function of (module, value): no I/O, no clock, no state, because it
// gates navigation synchronously on every transition attempt.
package validate

import (
	"github.com/go-playground/validator/v10"

	"github.com/LukhazD/pyform-sub000/internal/module"
)

// Result reports the outcome of a validation check.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

const (
	ReasonRequired     = "an answer is required"
	ReasonInvalidEmail = "enter a valid email address"
)

var v = validator.New()

// Answer validates answerValue against the module's requiredness and
// type-specific constraints.
//
// Informational modules always pass. Required modules fail on empty values.
// Email modules reject a malformed non-empty value even when optional. No
// other format constraints are enforced at this layer; min/max style schema
// rules belong to the editor and server.
func Answer(m module.Module, answerValue any) Result {
	if !m.Type.Answerable() {
		return Result{Valid: true}
	}

	empty := isEmpty(answerValue)

	if m.IsRequired && empty {
		return Result{Valid: false, Reason: ReasonRequired}
	}

	if m.Type == module.TypeEmail && !empty {
		s, ok := answerValue.(string)
		if !ok || v.Var(s, "email") != nil {
			return Result{Valid: false, Reason: ReasonInvalidEmail}
		}
	}

	return Result{Valid: true}
}

// isEmpty applies the uniform emptiness definition: nil, empty string, or a
// zero-length collection.
func isEmpty(value any) bool {
	switch val := value.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}
