// Package compose resolves competing service registrations into a
// deterministic order and filters resolved services through behavior rules.
package compose

import "context"

// TypeHierarchy answers type-hierarchy questions on behalf of the host.
// The core never inspects types itself.
type TypeHierarchy interface {
	// IsSupertypeOf reports whether a is b or one of b's ancestors,
	// i.e. whether a value of type b is assignable to a.
	IsSupertypeOf(a, b TypeID) bool
}

// HierarchyFunc adapts a plain function to TypeHierarchy.
type HierarchyFunc func(a, b TypeID) bool

// IsSupertypeOf implements TypeHierarchy.
func (f HierarchyFunc) IsSupertypeOf(a, b TypeID) bool {
	return f(a, b)
}

// Factory produces a service instance when the hosting adapter asks for one.
// The core stores factories but never calls them.
type Factory func(ctx context.Context) (any, error)

// ServiceBehaviorRule decides whether a resolved candidate of a contract is
// enabled for a given call.
type ServiceBehaviorRule interface {
	// AppliesTo returns the contract whose candidates the rule filters.
	AppliesTo() TypeID

	// CanApply reports whether the rule has an opinion for ctx.
	CanApply(ctx *ResolutionContext) (bool, error)

	// Evaluate returns the rule's decision. It is only called after
	// CanApply returned true.
	Evaluate(ctx *ResolutionContext) (Outcome, error)
}

// Prioritized is implemented by rules that carry their own ordering.
// ForRule seeds the rule's registration with these values.
type Prioritized interface {
	ProcessingPriority() int
	OverridePriority() int
}

// Lifetime is the declared lifetime of a registration. The core records it
// for the hosting adapter and does not act on it.
type Lifetime string

// Available lifetimes
const (
	// LifetimeTransient produces a new instance on each resolution
	LifetimeTransient Lifetime = "transient"
	// LifetimeScoped shares an instance within a scope owned by the adapter
	LifetimeScoped Lifetime = "scoped"
	// LifetimeSingleton shares a single instance across the application
	LifetimeSingleton Lifetime = "singleton"
)

// String returns the string representation of the lifetime.
func (l Lifetime) String() string {
	return string(l)
}

// Strategy identifies how a registration produces its instance.
type Strategy int

const (
	// StrategyNone marks a multi-slot placeholder with no instancing strategy.
	StrategyNone Strategy = iota
	StrategyType
	StrategyFactory
	StrategyInstance
)

func (s Strategy) String() string {
	switch s {
	case StrategyType:
		return "type"
	case StrategyFactory:
		return "factory"
	case StrategyInstance:
		return "instance"
	default:
		return "none"
	}
}
