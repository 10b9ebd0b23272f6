package compose

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// RuleSource supplies the behavior rules of a contract in evaluation order.
// *Registry is the usual implementation.
type RuleSource interface {
	RulesFor(contract TypeID) []ServiceBehaviorRule
}

type decisionRecorder interface {
	evaluate(rules []ServiceBehaviorRule, ctx *ResolutionContext) (bool, error)
}

func evaluateWith(src RuleSource, rules []ServiceBehaviorRule, ctx *ResolutionContext) (bool, error) {
	if rec, ok := src.(decisionRecorder); ok {
		return rec.evaluate(rules, ctx)
	}
	return EvaluateRules(rules, ctx)
}

// filterEnabled keeps the candidates whose rule chain enables them. subject
// maps a candidate to what rules observe.
func filterEnabled[T any](src RuleSource, contract TypeID, candidates []T, ctx *ResolutionContext,
	subject func(T) (any, Metadata)) ([]T, error) {
	rules := src.RulesFor(contract)
	if len(rules) == 0 {
		return slices.Clone(candidates), nil
	}
	if ctx == nil {
		ctx = NewResolutionContext(nil)
	}
	enabled := make([]T, 0, len(candidates))
	for _, candidate := range candidates {
		s, md := subject(candidate)
		ok, err := evaluateWith(src, rules, ctx.forCandidate(contract, s, md))
		if err != nil {
			return nil, err
		}
		if ok {
			enabled = append(enabled, candidate)
		}
	}
	return enabled, nil
}

// WhereEnabled returns the instances enabled for ctx, in their original
// order. Each instance is the rules' subject.
func WhereEnabled[T any](src RuleSource, contract TypeID, candidates []T, ctx *ResolutionContext) ([]T, error) {
	return filterEnabled(src, contract, candidates, ctx, func(c T) (any, Metadata) {
		return c, nil
	})
}

// Lazy defers creating a service until Value is called.
type Lazy[T any] struct {
	factory func() (T, error)
	once    sync.Once
	created atomic.Bool
	value   T
	err     error
}

// NewLazy wraps factory.
func NewLazy[T any](factory func() (T, error)) *Lazy[T] {
	return &Lazy[T]{factory: factory}
}

// Value creates the service on first call and returns the same result after.
// A panicking factory is reported as an error on this and every later call.
func (l *Lazy[T]) Value() (T, error) {
	l.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				l.value = zero
				l.err = fmt.Errorf("lazy factory panicked: %v", r)
			}
			l.created.Store(true)
		}()
		l.value, l.err = l.factory()
	})
	return l.value, l.err
}

// Created reports whether the factory has run.
func (l *Lazy[T]) Created() bool {
	return l.created.Load()
}

// WhereEnabledLazy returns the lazy candidates enabled for ctx without
// creating any of them. Each *Lazy is the rules' subject.
func WhereEnabledLazy[T any](src RuleSource, contract TypeID, candidates []*Lazy[T], ctx *ResolutionContext) ([]*Lazy[T], error) {
	return filterEnabled(src, contract, candidates, ctx, func(c *Lazy[T]) (any, Metadata) {
		return c, nil
	})
}

// FactoryWithMetadata pairs a deferred service with metadata that rules can
// inspect without creating the service.
type FactoryWithMetadata[T any] struct {
	Lazy     *Lazy[T]
	Metadata Metadata
}

// WhereEnabledWithMetadata returns the pairs enabled for ctx. Rules see the
// *Lazy as subject and the pair's metadata as subject metadata.
func WhereEnabledWithMetadata[T any](src RuleSource, contract TypeID, candidates []FactoryWithMetadata[T], ctx *ResolutionContext) ([]FactoryWithMetadata[T], error) {
	return filterEnabled(src, contract, candidates, ctx, func(c FactoryWithMetadata[T]) (any, Metadata) {
		return c.Lazy, c.Metadata
	})
}
