package compose

import (
	"fmt"
	"maps"
)

// Metadata keys recognized by Build.
const (
	MetaProcessingPriority = "ProcessingPriority"
	MetaOverridePriority   = "OverridePriority"
	MetaIsOverride         = "IsOverride"
)

// Metadata is the free-form key/value metadata of a registration.
type Metadata map[string]any

// ServiceRegistration describes one way of producing an instance for a
// contract. It is immutable once built.
type ServiceRegistration struct {
	name            string
	contract        TypeID
	declared        TypeID
	implementation  TypeID
	factory         Factory
	instance        any
	strategy        Strategy
	lifetime        Lifetime
	allowMultiple   bool
	externallyOwned bool

	processingPriority int
	overridePriority   int
	isOverride         bool
	metadata           Metadata
}

// Name returns the optional diagnostic label of the registration.
func (r *ServiceRegistration) Name() string { return r.name }

// Contract returns the contract the registration is exposed under.
func (r *ServiceRegistration) Contract() TypeID { return r.contract }

// DeclaredType returns the type used for override-chain comparison. The
// zero TypeID means the registration takes no part in override elimination.
func (r *ServiceRegistration) DeclaredType() TypeID { return r.declared }

// Strategy returns how the registration produces its instance.
func (r *ServiceRegistration) Strategy() Strategy { return r.strategy }

// ImplementationType returns the implementation type of a type registration.
func (r *ServiceRegistration) ImplementationType() (TypeID, bool) {
	return r.implementation, r.strategy == StrategyType
}

// Factory returns the factory of a factory registration, nil otherwise.
func (r *ServiceRegistration) Factory() Factory { return r.factory }

// Instance returns the instance of an instance registration.
func (r *ServiceRegistration) Instance() (any, bool) {
	return r.instance, r.strategy == StrategyInstance
}

// Lifetime returns the declared lifetime.
func (r *ServiceRegistration) Lifetime() Lifetime { return r.lifetime }

// AllowMultiple reports whether the contract accepts several registrations.
func (r *ServiceRegistration) AllowMultiple() bool { return r.allowMultiple }

// ExternallyOwned reports whether the consumer, not the engine, owns
// disposal of the registration's instances.
func (r *ServiceRegistration) ExternallyOwned() bool { return r.externallyOwned }

// ProcessingPriority returns the secondary sort key. Lower sorts first.
func (r *ServiceRegistration) ProcessingPriority() int { return r.processingPriority }

// OverridePriority returns the primary sort key. Lower sorts first.
func (r *ServiceRegistration) OverridePriority() int { return r.overridePriority }

// IsOverride reports whether the registration eliminates registrations of
// its declared type's ancestors.
func (r *ServiceRegistration) IsOverride() bool { return r.isOverride }

// IsPlaceholder reports whether the registration only declares that its
// contract accepts multiple registrations.
func (r *ServiceRegistration) IsPlaceholder() bool { return r.strategy == StrategyNone }

// Metadata returns a copy of the registration metadata.
func (r *ServiceRegistration) Metadata() Metadata {
	return maps.Clone(r.metadata)
}

// MetadataValue returns a single metadata value.
func (r *ServiceRegistration) MetadataValue(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// Identity returns a human readable identity used in diagnostics.
func (r *ServiceRegistration) Identity() string {
	var source string
	switch r.strategy {
	case StrategyType:
		source = r.implementation.String()
	case StrategyFactory:
		source = "factory(" + r.declared.String() + ")"
	case StrategyInstance:
		source = fmt.Sprintf("instance(%T)", r.instance)
	default:
		source = "placeholder"
	}
	if r.name != "" {
		source = r.name + "=" + source
	}
	return r.contract.String() + " <- " + source
}

func (r *ServiceRegistration) String() string {
	return fmt.Sprintf("%s [override=%d processing=%d isOverride=%t]",
		r.Identity(), r.overridePriority, r.processingPriority, r.isOverride)
}
