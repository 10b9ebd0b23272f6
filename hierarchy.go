package compose

import (
	"reflect"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
)

// StaticHierarchy is a TypeHierarchy built from explicit parent
// declarations. Ancestry is reflexive and transitive.
type StaticHierarchy struct {
	mu      sync.RWMutex
	parents map[TypeID][]TypeID
}

// NewStaticHierarchy creates an empty StaticHierarchy.
func NewStaticHierarchy() *StaticHierarchy {
	return &StaticHierarchy{parents: make(map[TypeID][]TypeID, 16)}
}

// Declare records that child is directly assignable to each of parents.
// Repeated declarations accumulate.
func (h *StaticHierarchy) Declare(child TypeID, parents ...TypeID) *StaticHierarchy {
	h.mu.Lock()
	defer h.mu.Unlock()
	existing := h.parents[child]
	for _, p := range parents {
		if !lo.Contains(existing, p) {
			existing = append(existing, p)
		}
	}
	h.parents[child] = existing
	return h
}

// Parents returns the direct parents declared for t.
func (h *StaticHierarchy) Parents(t TypeID) []TypeID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]TypeID(nil), h.parents[t]...)
}

// IsSupertypeOf implements TypeHierarchy.
func (h *StaticHierarchy) IsSupertypeOf(a, b TypeID) bool {
	if a == b {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	visited := map[TypeID]bool{b: true}
	queue := append([]TypeID(nil), h.parents[b]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == a {
			return true
		}
		if visited[next] {
			continue
		}
		visited[next] = true
		queue = append(queue, h.parents[next]...)
	}
	return false
}

// ReflectHierarchy answers hierarchy queries with Go reflection for the
// types it has been told about. Interfaces are supertypes of the types that
// implement them; other types follow reflect assignability.
type ReflectHierarchy struct {
	types sync.Map // TypeID -> reflect.Type
}

// NewReflectHierarchy creates a ReflectHierarchy knowing the given types.
func NewReflectHierarchy(types ...reflect.Type) *ReflectHierarchy {
	h := &ReflectHierarchy{}
	h.Include(types...)
	return h
}

// Include makes types known to the hierarchy.
func (h *ReflectHierarchy) Include(types ...reflect.Type) *ReflectHierarchy {
	for _, t := range types {
		if t != nil {
			h.types.Store(TypeIDOf(t), t)
		}
	}
	return h
}

// IncludeType makes T known to h.
func IncludeType[T any](h *ReflectHierarchy) TypeID {
	t := reflect.TypeOf((*T)(nil)).Elem()
	h.Include(t)
	return TypeIDOf(t)
}

// IsSupertypeOf implements TypeHierarchy.
func (h *ReflectHierarchy) IsSupertypeOf(a, b TypeID) bool {
	if a == b {
		return true
	}
	ra, ok := h.types.Load(a)
	if !ok {
		return false
	}
	rb, ok := h.types.Load(b)
	if !ok {
		return false
	}
	ta, tb := ra.(reflect.Type), rb.(reflect.Type)
	if ta.Kind() == reflect.Interface {
		return tb.Implements(ta)
	}
	return tb.AssignableTo(ta)
}

// cachedHierarchy memoizes answers of an inner hierarchy for the lifetime of
// a registry. The inner hierarchy must be immutable once composition ends.
type cachedHierarchy struct {
	inner   TypeHierarchy
	answers *gocache.Cache
}

func newCachedHierarchy(inner TypeHierarchy) *cachedHierarchy {
	if c, ok := inner.(*cachedHierarchy); ok {
		return c
	}
	return &cachedHierarchy{
		inner:   inner,
		answers: gocache.New(gocache.NoExpiration, 0),
	}
}

func (c *cachedHierarchy) IsSupertypeOf(a, b TypeID) bool {
	if a == b {
		return true
	}
	key := a.key() + "\x01" + b.key()
	if v, ok := c.answers.Get(key); ok {
		return v.(bool)
	}
	answer := c.inner.IsSupertypeOf(a, b)
	c.answers.SetDefault(key, answer)
	return answer
}
