package compose

import (
	"fmt"
	"strings"
)

// InvalidRegistrationError represents a registration that cannot be built.
type InvalidRegistrationError struct {
	Type   string
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration for type %s: %s", e.Type, e.Reason)
}

// ContractMismatchError represents an implementation that is not assignable
// to the contract it is registered under.
type ContractMismatchError struct {
	Contract       string
	Implementation string
}

func (e *ContractMismatchError) Error() string {
	return fmt.Sprintf("contract mismatch: %s is not assignable to %s", e.Implementation, e.Contract)
}

// AmbiguousRegistrationError represents a single-instance contract with more
// than one equally ranked survivor.
type AmbiguousRegistrationError struct {
	Type       string
	Candidates []string
}

func (e *AmbiguousRegistrationError) Error() string {
	return fmt.Sprintf("ambiguous registrations for type %s: %s", e.Type, strings.Join(e.Candidates, ", "))
}

// BindingNotFoundError represents a missing registration.
type BindingNotFoundError struct {
	Type string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("no binding found for type: %s", e.Type)
}

// NilServiceError represents an attempt to register a nil instance.
type NilServiceError struct {
	Type string
}

func (e *NilServiceError) Error() string {
	return fmt.Sprintf("nil service provided for type: %s", e.Type)
}
