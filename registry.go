package compose

import (
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// resolution is the memoized outcome of ordering one contract.
type resolution struct {
	ordered  []*ServiceRegistration
	multiple bool
}

// Registry is the immutable result of composing a Catalog. All methods are
// safe for concurrent use. Per-contract results are computed on first use and
// kept for the lifetime of the registry.
type Registry struct {
	byContract map[TypeID][]*ServiceRegistration
	contracts  []TypeID
	hierarchy  TypeHierarchy
	logger     *zap.Logger
	metrics    *Metrics

	resolved sync.Map // TypeID -> *resolution
	rules    sync.Map // TypeID -> []ServiceBehaviorRule
	group    singleflight.Group
}

func newRegistry(regs []*ServiceRegistration, h TypeHierarchy, opts options) *Registry {
	r := &Registry{
		byContract: make(map[TypeID][]*ServiceRegistration, len(regs)),
		hierarchy:  h,
		logger:     opts.logger,
		metrics:    opts.metrics,
	}
	for _, reg := range regs {
		if _, seen := r.byContract[reg.contract]; !seen {
			r.contracts = append(r.contracts, reg.contract)
		}
		r.byContract[reg.contract] = append(r.byContract[reg.contract], reg)
	}
	return r
}

// memoize returns the cached value for contract. Concurrent first callers
// share one computation through the singleflight group.
func (r *Registry) memoize(cache *sync.Map, kind string, contract TypeID, compute func() any) any {
	if v, ok := cache.Load(contract); ok {
		return v
	}
	v, _, _ := r.group.Do(kind+"\x00"+contract.key(), func() (any, error) {
		if v, ok := cache.Load(contract); ok {
			return v, nil
		}
		r.metrics.computation(kind)
		actual, _ := cache.LoadOrStore(contract, compute())
		return actual, nil
	})
	return v
}

func (r *Registry) resolution(contract TypeID) *resolution {
	return r.memoize(&r.resolved, "registrations", contract, func() any {
		regs := r.byContract[contract]
		res := &resolution{
			ordered: Order(regs, r.hierarchy),
			multiple: lo.SomeBy(regs, func(reg *ServiceRegistration) bool {
				return reg.allowMultiple
			}),
		}
		r.logger.Debug("contract resolved",
			zap.Stringer("contract", contract),
			zap.Int("registrations", len(regs)),
			zap.Int("survivors", len(res.ordered)),
			zap.Bool("multiple", res.multiple),
		)
		return res
	}).(*resolution)
}

// Resolve returns the single registration that wins for contract. Contracts
// accepting multiple registrations yield their first survivor.
func (r *Registry) Resolve(contract TypeID) (*ServiceRegistration, error) {
	res := r.resolution(contract)
	if len(res.ordered) == 0 {
		r.metrics.resolved("not_found")
		return nil, &BindingNotFoundError{Type: contract.String()}
	}
	if res.multiple {
		r.metrics.resolved("ok")
		return res.ordered[0], nil
	}
	winner, err := Winner(contract, res.ordered)
	if err != nil {
		r.metrics.resolved("ambiguous")
		return nil, err
	}
	r.metrics.resolved("ok")
	return winner, nil
}

// ResolveAll returns the ordered survivors for contract. The returned slice
// is owned by the caller.
func (r *Registry) ResolveAll(contract TypeID) []*ServiceRegistration {
	return slices.Clone(r.resolution(contract).ordered)
}

// First returns the first survivor, in resolution order, matching pred.
func (r *Registry) First(contract TypeID, pred func(*ServiceRegistration) bool) (*ServiceRegistration, bool) {
	return lo.Find(r.resolution(contract).ordered, pred)
}

// Where returns the survivors matching pred in resolution order.
func (r *Registry) Where(contract TypeID, pred func(*ServiceRegistration) bool) []*ServiceRegistration {
	return lo.Filter(r.resolution(contract).ordered, func(reg *ServiceRegistration, _ int) bool {
		return pred(reg)
	})
}

// IsMultiple reports whether contract accepts multiple registrations.
func (r *Registry) IsMultiple(contract TypeID) bool {
	return r.resolution(contract).multiple
}

// Has reports whether anything was registered for contract.
func (r *Registry) Has(contract TypeID) bool {
	return len(r.byContract[contract]) > 0
}

// Contracts returns every contract in first-registration order.
func (r *Registry) Contracts() []TypeID {
	return slices.Clone(r.contracts)
}

// Registrations returns the raw registrations of contract in registration
// order, before elimination and sorting.
func (r *Registry) Registrations(contract TypeID) []*ServiceRegistration {
	return slices.Clone(r.byContract[contract])
}

// RulesFor returns the behavior rules of contract in evaluation order.
func (r *Registry) RulesFor(contract TypeID) []ServiceBehaviorRule {
	return r.memoize(&r.rules, "rules", contract, func() any {
		ordered := r.ResolveAll(RuleContract(contract))
		rules := make([]ServiceBehaviorRule, 0, len(ordered))
		for _, reg := range ordered {
			instance, ok := reg.Instance()
			if !ok {
				r.logger.Debug("skipping rule registration without instance",
					zap.String("identity", reg.Identity()))
				continue
			}
			rule, ok := instance.(ServiceBehaviorRule)
			if !ok || rule.AppliesTo() != contract {
				r.logger.Debug("skipping registration that is not a rule for contract",
					zap.String("identity", reg.Identity()),
					zap.Stringer("contract", contract))
				continue
			}
			rules = append(rules, rule)
		}
		return rules
	}).([]ServiceBehaviorRule)
}

// EnabledRegistrations returns the survivors of contract that the contract's
// behavior rules enable for ctx. Rules see each registration as the subject
// and its metadata; nothing is instantiated.
func (r *Registry) EnabledRegistrations(contract TypeID, ctx *ResolutionContext) ([]*ServiceRegistration, error) {
	return filterEnabled(r, contract, r.resolution(contract).ordered, ctx, func(reg *ServiceRegistration) (any, Metadata) {
		return reg, reg.Metadata()
	})
}

func (r *Registry) evaluate(rules []ServiceBehaviorRule, ctx *ResolutionContext) (bool, error) {
	enabled, err := EvaluateRules(rules, ctx)
	if err != nil {
		return false, err
	}
	r.metrics.decided(enabled)
	return enabled, nil
}
