package compose

// OutcomeKind tells the rule engine what to do after a rule decided.
type OutcomeKind uint8

const (
	// OutcomeContinue passes the candidate on to the next rule when enabled
	// and disables it, ending evaluation, when not.
	OutcomeContinue OutcomeKind = iota
	// OutcomeStop ends evaluation with the rule's value.
	OutcomeStop
)

// Outcome is the decision of one behavior rule for one candidate.
type Outcome struct {
	Kind    OutcomeKind
	Enabled bool
}

// Continue returns a non-final outcome. Continue(false) still ends
// evaluation because a disabled candidate cannot be re-enabled.
func Continue(enabled bool) Outcome {
	return Outcome{Kind: OutcomeContinue, Enabled: enabled}
}

// Stop returns a final outcome.
func Stop(enabled bool) Outcome {
	return Outcome{Kind: OutcomeStop, Enabled: enabled}
}

// Rule is a ServiceBehaviorRule assembled from functions.
type Rule struct {
	Contract TypeID
	// When gates the rule; a nil When always applies.
	When func(ctx *ResolutionContext) (bool, error)
	// Value computes whether the candidate is enabled.
	Value func(ctx *ResolutionContext) (bool, error)
	// End stops evaluation after this rule regardless of its value.
	End bool

	Processing int
	Override   int
}

func (r *Rule) AppliesTo() TypeID { return r.Contract }

func (r *Rule) CanApply(ctx *ResolutionContext) (bool, error) {
	if r.When == nil {
		return true, nil
	}
	return r.When(ctx)
}

func (r *Rule) Evaluate(ctx *ResolutionContext) (Outcome, error) {
	enabled := true
	if r.Value != nil {
		var err error
		if enabled, err = r.Value(ctx); err != nil {
			return Outcome{}, err
		}
	}
	if r.End {
		return Stop(enabled), nil
	}
	return Continue(enabled), nil
}

func (r *Rule) ProcessingPriority() int { return r.Processing }

func (r *Rule) OverridePriority() int { return r.Override }

// EvaluateRules runs ordered rules for a candidate context. A candidate with
// no applicable rule is enabled. Rule errors are returned unchanged.
func EvaluateRules(rules []ServiceBehaviorRule, ctx *ResolutionContext) (bool, error) {
	enabled := true
	for _, rule := range rules {
		applies, err := rule.CanApply(ctx)
		if err != nil {
			return false, err
		}
		if !applies {
			continue
		}
		outcome, err := rule.Evaluate(ctx)
		if err != nil {
			return false, err
		}
		enabled = outcome.Enabled
		switch outcome.Kind {
		case OutcomeStop:
			return enabled, nil
		case OutcomeContinue:
			if !enabled {
				return false, nil
			}
		}
	}
	return enabled, nil
}
