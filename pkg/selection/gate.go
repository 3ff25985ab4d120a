package selection

import "fmt"

// Validation rule identifiers carried by ValidationError.
const (
	RuleMinItems    = "minItems"
	RuleMaxItems    = "maxItems"
	RulePlaceholder = "placeholder"
)

// ValidationError reports a selection that violates the gate at submit time.
// It blocks submission; the selection itself is never altered or dropped.
type ValidationError struct {
	Rule  string
	Limit int
	Count int
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case RuleMinItems:
		return fmt.Sprintf("selection: at least %d item(s) required, have %d", e.Limit, e.Count)
	case RuleMaxItems:
		return fmt.Sprintf("selection: at most %d item(s) allowed, have %d", e.Limit, e.Count)
	case RulePlaceholder:
		return "selection: a value is required"
	default:
		return fmt.Sprintf("selection: rule %s violated", e.Rule)
	}
}

// Gate enforces item-count bounds and placeholder policy when a form is
// submitted. The UI may let the selection violate these transiently while
// editing; only Validate decides.
type Gate struct {
	minItems int
	maxItems int
	hasMin   bool
	hasMax   bool

	disablePlaceholder bool
}

// NewGate returns a gate with no constraints.
func NewGate() Gate {
	return Gate{}
}

// WithMinItems requires at least n selections in Multiple mode.
func (g Gate) WithMinItems(n int) Gate {
	g.minItems = n
	g.hasMin = true
	return g
}

// WithMaxItems allows at most n selections in Multiple mode.
func (g Gate) WithMaxItems(n int) Gate {
	g.maxItems = n
	g.hasMax = true
	return g
}

// WithDisablePlaceholderSelection forbids the empty value as a final Single
// mode selection.
func (g Gate) WithDisablePlaceholderSelection() Gate {
	g.disablePlaceholder = true
	return g
}

// Validate checks the selection against the gate's rules and returns the
// first violated one as a *ValidationError.
func (g Gate) Validate(state *State) error {
	if state.Mode() == Multiple {
		count := state.Len()
		if g.hasMin && count < g.minItems {
			return &ValidationError{Rule: RuleMinItems, Limit: g.minItems, Count: count}
		}
		if g.hasMax && count > g.maxItems {
			return &ValidationError{Rule: RuleMaxItems, Limit: g.maxItems, Count: count}
		}
		return nil
	}

	if g.disablePlaceholder && state.Empty() {
		return &ValidationError{Rule: RulePlaceholder}
	}
	return nil
}
