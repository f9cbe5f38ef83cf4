package rule

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is against these to classify a
// *ConstructionError or check a returned error's Kind.
var (
	// ErrFlagMisuse indicates temp/protected was applied to an input, or a
	// flag was applied to a callable.
	ErrFlagMisuse = errors.New("flag misuse")

	// ErrMixedDynamicOutput indicates a dynamic output coexists with a
	// non-dynamic output on the same rule.
	ErrMixedDynamicOutput = errors.New("mixed dynamic output")

	// ErrWildcardSetMismatch indicates two outputs of one rule disagree on
	// their wildcard name set.
	ErrWildcardSetMismatch = errors.New("wildcard set mismatch")

	// ErrCallableOutput indicates a callable (input/param function) was
	// supplied as an output item.
	ErrCallableOutput = errors.New("callable output")

	// ErrBadItemType indicates a construction item was not a string,
	// Tagged, nested list, or (for inputs/params) a function.
	ErrBadItemType = errors.New("unsupported item type")

	// ErrBadCommand indicates the command template failed shell syntax
	// validation.
	ErrBadCommand = errors.New("bad command template")

	// ErrDuplicateName indicates a rule was added to a registry under a
	// name already in use.
	ErrDuplicateName = errors.New("duplicate rule name")
)

// Location identifies where a rule was declared, for error reporting.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return "(unknown)"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ConstructionError reports a failure while building a Rule. It always
// carries the rule name and source location per spec.md's error-propagation
// contract (§7: "all errors carry (rule_name, source_location)").
type ConstructionError struct {
	Rule     string
	Location Location
	Kind     error
	Message  string
}

func (e *ConstructionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rule %q (%s): %v", e.Rule, e.Location, e.Kind)
	}
	return fmt.Sprintf("rule %q (%s): %v: %s", e.Rule, e.Location, e.Kind, e.Message)
}

func (e *ConstructionError) Unwrap() error { return e.Kind }
