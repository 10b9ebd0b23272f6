package compose

import (
	"context"
	"sync"
)

// ResolutionContext extends the standard context.Context with the values a
// behavior rule inspects: ambient configuration, and the candidate currently
// under evaluation.
type ResolutionContext struct {
	context.Context
	values sync.Map
	base   *ResolutionContext

	contract TypeID
	subject  any
	metadata Metadata
}

// NewResolutionContext creates a new ResolutionContext wrapping a standard
// context.Context. A nil parent is replaced by context.Background().
func NewResolutionContext(parent context.Context) *ResolutionContext {
	if parent == nil {
		parent = context.Background()
	}
	return &ResolutionContext{
		Context: parent,
	}
}

// WithValue returns a new ResolutionContext with the provided key-value pair.
// The new context inherits all values from c.
func (c *ResolutionContext) WithValue(key, val any) *ResolutionContext {
	newCtx := &ResolutionContext{
		Context:  c.Context,
		base:     c.base,
		contract: c.contract,
		subject:  c.subject,
		metadata: c.metadata,
	}
	c.values.Range(func(k, v any) bool {
		newCtx.values.Store(k, v)
		return true
	})
	newCtx.values.Store(key, val)
	return newCtx
}

// Value looks up key in the context's own values, then in the context it was
// derived from, then in the wrapped context.Context.
func (c *ResolutionContext) Value(key any) any {
	if c == nil {
		return nil
	}
	if val, ok := c.values.Load(key); ok {
		return val
	}
	if c.base != nil {
		return c.base.Value(key)
	}
	if c.Context != nil {
		return c.Context.Value(key)
	}
	return nil
}

func (c *ResolutionContext) Parent() context.Context {
	return c.Context
}

// MergeWith combines values from another ResolutionContext.
// Values from the other context override existing values with the same key.
// The merged context keeps c's candidate and the values c was derived from.
func (c *ResolutionContext) MergeWith(other *ResolutionContext) *ResolutionContext {
	newCtx := &ResolutionContext{
		Context:  c.Context,
		base:     c.base,
		contract: c.contract,
		subject:  c.subject,
		metadata: c.metadata,
	}

	c.values.Range(func(k, v any) bool {
		newCtx.values.Store(k, v)
		return true
	})

	if other != nil {
		other.values.Range(func(k, v any) bool {
			newCtx.values.Store(k, v)
			return true
		})
	}

	return newCtx
}

// Contract returns the contract whose candidate is being evaluated.
func (c *ResolutionContext) Contract() TypeID {
	return c.contract
}

// Subject returns the candidate under evaluation: an instance, a *Lazy, or
// a *ServiceRegistration. It is nil outside rule evaluation.
func (c *ResolutionContext) Subject() any {
	return c.subject
}

// SubjectMetadata returns the metadata attached to the candidate, if any.
func (c *ResolutionContext) SubjectMetadata() Metadata {
	return c.metadata
}

// forCandidate derives the context seen by rules for one candidate.
func (c *ResolutionContext) forCandidate(contract TypeID, subject any, md Metadata) *ResolutionContext {
	return &ResolutionContext{
		Context:  c.Context,
		base:     c,
		contract: contract,
		subject:  subject,
		metadata: md,
	}
}
