package compose

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeID identifies a contract or implementation type. Two TypeIDs are the
// same type when their fields are equal, so TypeID is usable as a map key.
type TypeID struct {
	Name string
	// Open marks an unbound generic type.
	Open bool
}

var (
	typeIDCache sync.Map // reflect.Type -> TypeID

	typeNamesMu sync.Mutex
	typeNames   = make(map[string]reflect.Type)
)

// Type returns the TypeID for a closed type name.
func Type(name string) TypeID {
	return TypeID{Name: name}
}

// OpenGeneric returns the TypeID for an unbound generic type name.
func OpenGeneric(name string) TypeID {
	return TypeID{Name: name, Open: true}
}

// TypeOf returns the TypeID for T, named after its reflect.Type.
func TypeOf[T any]() TypeID {
	return typeIDFor(reflect.TypeOf((*T)(nil)).Elem())
}

// TypeOfValue returns the TypeID of v's dynamic type. The zero TypeID is
// returned for a nil interface.
func TypeOfValue(v any) TypeID {
	if v == nil {
		return TypeID{}
	}
	return typeIDFor(reflect.TypeOf(v))
}

// TypeIDOf returns the TypeID used for t.
func TypeIDOf(t reflect.Type) TypeID {
	if t == nil {
		return TypeID{}
	}
	return typeIDFor(t)
}

// typeIDFor names t after reflect.Type.String. That string only carries the
// package name, so distinct types printing the same (same-named packages,
// function-local types) get a "#n" suffix in first-use order.
func typeIDFor(t reflect.Type) TypeID {
	if cached, ok := typeIDCache.Load(t); ok {
		return cached.(TypeID)
	}
	typeNamesMu.Lock()
	defer typeNamesMu.Unlock()
	if cached, ok := typeIDCache.Load(t); ok {
		return cached.(TypeID)
	}

	base := t.String()
	name := base
	for n := 2; ; n++ {
		owner, taken := typeNames[name]
		if !taken || owner == t {
			break
		}
		name = fmt.Sprintf("%s#%d", base, n)
	}
	typeNames[name] = t

	id := TypeID{Name: name}
	typeIDCache.Store(t, id)
	return id
}

// IsZero reports whether t is the zero TypeID.
func (t TypeID) IsZero() bool {
	return t.Name == ""
}

// key returns a string unique per TypeID, unlike String where an open X and
// a closed type named "X[?]" print the same.
func (t TypeID) key() string {
	if t.Open {
		return t.Name + "\x00open"
	}
	return t.Name + "\x00closed"
}

func (t TypeID) String() string {
	if t.Open {
		return t.Name + "[?]"
	}
	return t.Name
}

const ruleContractPrefix = "behavior-rule:"

// RuleContract returns the contract under which behavior rules for target
// are registered.
func RuleContract(target TypeID) TypeID {
	return TypeID{Name: ruleContractPrefix + target.Name, Open: target.Open}
}
