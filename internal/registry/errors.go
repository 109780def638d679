package registry

import (
	"errors"
	"fmt"
)

var (
	ErrAPIExists    = errors.New("registry: api already registered")
	ErrRegistryFull = errors.New("registry: capacity reached")
	ErrAPINotFound  = errors.New("registry: api not found")
	ErrNameRequired = errors.New("registry: api name is required")
)

// ConflictError reports a failed registration: either the name is taken or
// the ledger is at capacity.
type ConflictError struct {
	Name     string
	Capacity int
	cause    error
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ErrAPIExists.Error()
	}
	if errors.Is(e.cause, ErrRegistryFull) {
		return fmt.Sprintf("%s: limit %d", ErrRegistryFull.Error(), e.Capacity)
	}
	return fmt.Sprintf("%s: %q", ErrAPIExists.Error(), e.Name)
}

func (e *ConflictError) Unwrap() error {
	if e == nil || e.cause == nil {
		return ErrAPIExists
	}
	return e.cause
}

// NotFoundError reports a lookup or removal for an unknown API name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	if e == nil || e.Name == "" {
		return ErrAPINotFound.Error()
	}
	return fmt.Sprintf("%s: %q", ErrAPINotFound.Error(), e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrAPINotFound
}
