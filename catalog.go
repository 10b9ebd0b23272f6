package compose

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Catalog collects registrations during the composition phase. Compose
// freezes the collected registrations into a Registry.
type Catalog struct {
	mu            sync.Mutex
	registrations []*ServiceRegistration
	hierarchy     TypeHierarchy
	logger        *zap.Logger
	opts          options
}

// NewCatalog creates a catalog that checks contracts against h. A nil h
// only knows that every type is assignable to itself.
func NewCatalog(h TypeHierarchy, opts ...Option) *Catalog {
	if h == nil {
		h = NewStaticHierarchy()
	}
	merged := mergeOptions(opts)
	return &Catalog{
		registrations: make([]*ServiceRegistration, 0, 32),
		hierarchy:     h,
		logger:        merged.logger,
		opts:          merged,
	}
}

// ForType starts a registration whose instances are built from the
// implementation type t.
func (c *Catalog) ForType(t TypeID) *RegistrationBuilder {
	return newRegistrationBuilder(c).forType(t)
}

// ForFactory starts a registration whose instances are produced by fn.
// t is the type fn produces.
func (c *Catalog) ForFactory(t TypeID, fn Factory) *RegistrationBuilder {
	return newRegistrationBuilder(c).forFactory(t, fn)
}

// ForInstance starts a registration that always yields v.
func (c *Catalog) ForInstance(v any) *RegistrationBuilder {
	return newRegistrationBuilder(c).forInstance(v)
}

// ForContract starts a registration without an instancing strategy. It only
// builds once AllowMultiple(true) is set.
func (c *Catalog) ForContract(contract TypeID) *RegistrationBuilder {
	return newRegistrationBuilder(c).forContract(contract)
}

// ForRule starts the registration of a behavior rule. The rule is exposed
// under RuleContract(rule.AppliesTo()); its priorities come from Prioritized
// when implemented and may be changed on the returned builder.
func (c *Catalog) ForRule(rule ServiceBehaviorRule) *RegistrationBuilder {
	b := newRegistrationBuilder(c)
	b.trusted = true
	b.forInstance(rule)
	if isNil(rule) {
		return b
	}
	b.As(RuleContract(rule.AppliesTo())).AllowMultiple(true).ExternallyOwned()
	if p, ok := rule.(Prioritized); ok {
		b.WithProcessingPriority(p.ProcessingPriority()).WithOverridePriority(p.OverridePriority())
	}
	return b
}

// Add appends a built registration.
func (c *Catalog) Add(reg *ServiceRegistration) error {
	if reg == nil {
		return &NilServiceError{Type: "<nil>"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registrations = append(c.registrations, reg)
	c.logger.Debug("registration added",
		zap.Stringer("contract", reg.Contract()),
		zap.String("identity", reg.Identity()),
		zap.Int("override_priority", reg.OverridePriority()),
		zap.Int("processing_priority", reg.ProcessingPriority()),
		zap.Bool("is_override", reg.IsOverride()),
	)
	return nil
}

// Len returns the number of registrations added so far.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.registrations)
}

// Compose returns an immutable snapshot of the catalog. Registrations added
// afterwards are not visible to the returned Registry.
func (c *Catalog) Compose() *Registry {
	c.mu.Lock()
	regs := slices.Clone(c.registrations)
	c.mu.Unlock()

	h := c.hierarchy
	if c.opts.cacheHierarchy {
		h = newCachedHierarchy(h)
	}
	r := newRegistry(regs, h, c.opts)
	c.logger.Info("catalog composed",
		zap.Int("registrations", len(regs)),
		zap.Int("contracts", len(r.contracts)),
	)
	return r
}
