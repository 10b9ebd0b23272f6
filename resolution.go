package compose

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// Order turns the registrations of one contract into the ordered list of
// survivors: overridden registrations are eliminated, placeholders are
// dropped, and the rest are sorted by override priority, then processing
// priority, keeping registration order for ties. regs is not modified.
func Order(regs []*ServiceRegistration, h TypeHierarchy) []*ServiceRegistration {
	survivors := EliminateOverridden(regs, h)
	survivors = lo.Reject(survivors, func(r *ServiceRegistration, _ int) bool {
		return r.IsPlaceholder()
	})
	SortByPriority(survivors)
	return survivors
}

// EliminateOverridden removes every registration whose declared type is a
// proper ancestor of the declared type of an override registration. An
// override that is itself eliminated still eliminates its own ancestors, so
// a chain of overrides collapses onto its last link.
func EliminateOverridden(regs []*ServiceRegistration, h TypeHierarchy) []*ServiceRegistration {
	if h == nil {
		return slices.Clone(regs)
	}
	eliminated := make([]bool, len(regs))
	for i, overrider := range regs {
		if !overrider.isOverride || overrider.declared.IsZero() {
			continue
		}
		for j, candidate := range regs {
			if i == j || eliminated[j] || candidate.declared.IsZero() {
				continue
			}
			if candidate.declared == overrider.declared {
				continue
			}
			if h.IsSupertypeOf(candidate.declared, overrider.declared) {
				eliminated[j] = true
			}
		}
	}
	return lo.Filter(regs, func(_ *ServiceRegistration, i int) bool {
		return !eliminated[i]
	})
}

// SortByPriority sorts regs in place, ascending by override priority and then
// processing priority. The sort is stable.
func SortByPriority(regs []*ServiceRegistration) {
	slices.SortStableFunc(regs, comparePriority)
}

func comparePriority(a, b *ServiceRegistration) int {
	if c := cmp.Compare(a.overridePriority, b.overridePriority); c != 0 {
		return c
	}
	return cmp.Compare(a.processingPriority, b.processingPriority)
}

// Winner picks the single resolved registration from an ordered survivor
// list. All survivors sharing the first override priority compete; a lone
// override among them wins, otherwise more than one competitor is an
// AmbiguousRegistrationError.
func Winner(contract TypeID, ordered []*ServiceRegistration) (*ServiceRegistration, error) {
	if len(ordered) == 0 {
		return nil, &BindingNotFoundError{Type: contract.String()}
	}
	top := ordered[0].overridePriority
	competing := lo.Filter(ordered, func(r *ServiceRegistration, _ int) bool {
		return r.overridePriority == top
	})
	if len(competing) == 1 {
		return competing[0], nil
	}
	overrides := lo.Filter(competing, func(r *ServiceRegistration, _ int) bool {
		return r.isOverride
	})
	if len(overrides) == 1 {
		return overrides[0], nil
	}
	return nil, &AmbiguousRegistrationError{
		Type: contract.String(),
		Candidates: lo.Map(competing, func(r *ServiceRegistration, _ int) string {
			return r.Identity()
		}),
	}
}
