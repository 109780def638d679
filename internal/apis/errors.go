package apis

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired   = errors.New("apis: api name is required")
	ErrNameInvalid    = errors.New("apis: api name is invalid")
	ErrNameReserved   = errors.New("apis: api name is reserved")
	ErrSchemaRequired = errors.New("apis: schema document is required")
)

// NameError reports a creation request whose entity name cannot be used.
type NameError struct {
	Name  string
	cause error
}

func (e *NameError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v: %q", e.cause, e.Name)
	}
	return fmt.Sprintf("%v: %q", ErrNameInvalid, e.Name)
}

func (e *NameError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return ErrNameInvalid
}
