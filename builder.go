package compose

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// RegistrationBuilder assembles a ServiceRegistration. Builders are created
// by a Catalog and are not safe for concurrent use.
type RegistrationBuilder struct {
	catalog   *Catalog
	hierarchy TypeHierarchy
	logger    *zap.Logger

	name           string
	contract       TypeID
	declared       TypeID
	sourceType     TypeID
	strategy       Strategy
	implementation TypeID
	factory        Factory
	instance       any
	lifetime       Lifetime

	allowMultiple   bool
	externallyOwned bool
	metadata        Metadata

	// trusted builders skip the assignability check of As.
	trusted bool
	err     error
}

func newRegistrationBuilder(c *Catalog) *RegistrationBuilder {
	return &RegistrationBuilder{
		catalog:   c,
		hierarchy: c.hierarchy,
		logger:    c.logger,
		metadata:  make(Metadata, 4),
	}
}

func (b *RegistrationBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *RegistrationBuilder) forType(t TypeID) *RegistrationBuilder {
	b.strategy = StrategyType
	b.implementation = t
	b.sourceType = t
	b.declared = t
	b.contract = t
	b.lifetime = LifetimeTransient
	if t.IsZero() {
		b.fail(&InvalidRegistrationError{Type: "<unknown>", Reason: "implementation type is empty"})
	}
	return b
}

func (b *RegistrationBuilder) forFactory(t TypeID, fn Factory) *RegistrationBuilder {
	b.sourceType = t
	b.declared = t
	b.contract = t
	b.lifetime = LifetimeTransient
	if fn != nil {
		b.strategy = StrategyFactory
		b.factory = fn
	}
	return b
}

func (b *RegistrationBuilder) forInstance(v any) *RegistrationBuilder {
	t := TypeOfValue(v)
	b.sourceType = t
	b.declared = t
	b.contract = t
	b.lifetime = LifetimeSingleton
	if isNil(v) {
		name := t.String()
		if t.IsZero() {
			name = "<nil>"
		}
		b.fail(&NilServiceError{Type: name})
		return b
	}
	b.strategy = StrategyInstance
	b.instance = v
	return b
}

func (b *RegistrationBuilder) forContract(contract TypeID) *RegistrationBuilder {
	b.contract = contract
	b.lifetime = LifetimeTransient
	return b
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// As exposes the registration under contract. The implementation, factory
// type or instance type must be assignable to contract, unless both are
// unbound generics.
func (b *RegistrationBuilder) As(contract TypeID) *RegistrationBuilder {
	b.contract = contract
	if contract.IsZero() {
		b.fail(&InvalidRegistrationError{Type: b.sourceType.String(), Reason: "contract type is empty"})
		return b
	}
	if b.trusted || b.sourceType.IsZero() || b.hierarchy == nil {
		return b
	}
	if contract.Open && b.sourceType.Open {
		return b
	}
	if !b.hierarchy.IsSupertypeOf(contract, b.sourceType) {
		b.fail(&ContractMismatchError{Contract: contract.String(), Implementation: b.sourceType.String()})
	}
	return b
}

// DeclaredAs sets the type compared during override elimination. Passing the
// zero TypeID removes the registration from override elimination.
func (b *RegistrationBuilder) DeclaredAs(t TypeID) *RegistrationBuilder {
	b.declared = t
	return b
}

// Named attaches a diagnostic label.
func (b *RegistrationBuilder) Named(name string) *RegistrationBuilder {
	b.name = name
	return b
}

// Singleton shares one instance across the application.
func (b *RegistrationBuilder) Singleton() *RegistrationBuilder {
	b.lifetime = LifetimeSingleton
	return b
}

// Scoped shares one instance per scope of the hosting adapter.
func (b *RegistrationBuilder) Scoped() *RegistrationBuilder {
	b.lifetime = LifetimeScoped
	return b
}

// Transient produces a new instance on each resolution.
func (b *RegistrationBuilder) Transient() *RegistrationBuilder {
	b.lifetime = LifetimeTransient
	return b
}

// AllowMultiple marks the contract as accepting several registrations.
func (b *RegistrationBuilder) AllowMultiple(allow bool) *RegistrationBuilder {
	b.allowMultiple = allow
	return b
}

// ExternallyOwned marks instances as disposed by the consumer.
func (b *RegistrationBuilder) ExternallyOwned() *RegistrationBuilder {
	b.externallyOwned = true
	return b
}

// AddMetadata stores a metadata value. The last write for a key wins.
func (b *RegistrationBuilder) AddMetadata(key string, value any) *RegistrationBuilder {
	b.metadata[key] = value
	return b
}

// WithProcessingPriority stores the processing priority in the metadata.
func (b *RegistrationBuilder) WithProcessingPriority(priority int) *RegistrationBuilder {
	return b.AddMetadata(MetaProcessingPriority, priority)
}

// WithOverridePriority stores the override priority in the metadata.
func (b *RegistrationBuilder) WithOverridePriority(priority int) *RegistrationBuilder {
	return b.AddMetadata(MetaOverridePriority, priority)
}

// Override marks the registration as superseding registrations whose
// declared type is an ancestor of its own.
func (b *RegistrationBuilder) Override() *RegistrationBuilder {
	return b.AddMetadata(MetaIsOverride, true)
}

// SelectConstructor is accepted for compatibility with hosts that pick
// constructors. It has no effect here.
func (b *RegistrationBuilder) SelectConstructor(params ...TypeID) *RegistrationBuilder {
	b.logger.Warn("constructor selection is handled by the hosting adapter; ignoring",
		zap.Stringer("type", b.sourceType),
		zap.Int("params", len(params)),
	)
	return b
}

// Build validates the builder and returns the immutable registration.
func (b *RegistrationBuilder) Build() (*ServiceRegistration, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.contract.IsZero() {
		return nil, &InvalidRegistrationError{Type: b.sourceType.String(), Reason: "contract type is empty"}
	}
	if b.strategy == StrategyNone && !b.allowMultiple {
		return nil, &InvalidRegistrationError{
			Type:   b.contract.String(),
			Reason: "no instancing strategy and multiple registrations are not allowed",
		}
	}

	reg := &ServiceRegistration{
		name:            b.name,
		contract:        b.contract,
		declared:        b.declared,
		factory:         b.factory,
		instance:        b.instance,
		strategy:        b.strategy,
		lifetime:        b.lifetime,
		allowMultiple:   b.allowMultiple,
		externallyOwned: b.externallyOwned,
		metadata:        maps.Clone(b.metadata),
	}
	if b.strategy == StrategyType {
		reg.implementation = b.implementation
	}
	if b.strategy == StrategyNone {
		reg.declared = TypeID{}
	}

	var err error
	if reg.processingPriority, err = b.intMetadata(MetaProcessingPriority); err != nil {
		return nil, err
	}
	if reg.overridePriority, err = b.intMetadata(MetaOverridePriority); err != nil {
		return nil, err
	}
	if v, ok := b.metadata[MetaIsOverride]; ok {
		if reg.isOverride, err = cast.ToBoolE(v); err != nil {
			return nil, &InvalidRegistrationError{
				Type:   b.contract.String(),
				Reason: fmt.Sprintf("metadata %s: %v", MetaIsOverride, err),
			}
		}
	}
	return reg, nil
}

func (b *RegistrationBuilder) intMetadata(key string) (int, error) {
	v, ok := b.metadata[key]
	if !ok {
		return 0, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, &InvalidRegistrationError{
			Type:   b.contract.String(),
			Reason: fmt.Sprintf("metadata %s: %v", key, err),
		}
	}
	return n, nil
}

// Register builds the registration and adds it to the catalog that created
// the builder.
func (b *RegistrationBuilder) Register() (*ServiceRegistration, error) {
	reg, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := b.catalog.Add(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
