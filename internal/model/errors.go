package model

import (
	"errors"
	"fmt"
)

// ErrNameCollision flags two schema properties normalizing to the same name.
var ErrNameCollision = errors.New("model: field name collision")

// ErrShapeFieldUnknown flags lookups for fields a shape does not carry.
var ErrShapeFieldUnknown = errors.New("model: unknown shape field")

// NameCollisionError reports a case-insensitive duplicate field name found
// during synthesis, before any storage side effect occurs.
type NameCollisionError struct {
	Entity string
	Name   string
	Other  string
}

func (e *NameCollisionError) Error() string {
	if e == nil {
		return ErrNameCollision.Error()
	}
	return fmt.Sprintf("%s: %q and %q normalize to the same name in entity %q",
		ErrNameCollision.Error(), e.Name, e.Other, e.Entity)
}

func (e *NameCollisionError) Unwrap() error {
	return ErrNameCollision
}
