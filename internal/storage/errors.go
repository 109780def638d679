package storage

import (
	"errors"
	"fmt"
)

var (
	ErrTableExists        = errors.New("storage: table already exists")
	ErrTableNotFound      = errors.New("storage: table not found")
	ErrRowNotFound        = errors.New("storage: row not found")
	ErrProvisionFailed    = errors.New("storage: provisioning failed")
	ErrDialectUnsupported = errors.New("storage: unsupported dialect")
)

// ConflictError reports a provisioning attempt against a table name that
// already exists. Existing tables are never reused or altered.
type ConflictError struct {
	Table string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %q", ErrTableExists.Error(), e.Table)
}

func (e *ConflictError) Unwrap() error {
	return ErrTableExists
}

// ProvisionError reports a failed CREATE TABLE. RolledBack records whether
// the partial table was successfully dropped before surfacing.
type ProvisionError struct {
	Table      string
	RolledBack bool
	cause      error
}

func (e *ProvisionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %q: %v", ErrProvisionFailed.Error(), e.Table, e.cause)
	}
	return fmt.Sprintf("%s: %q", ErrProvisionFailed.Error(), e.Table)
}

func (e *ProvisionError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return ErrProvisionFailed
}

func (e *ProvisionError) Is(target error) bool {
	return target == ErrProvisionFailed
}

// RowNotFoundError reports a row lookup, update, or delete that matched
// nothing.
type RowNotFoundError struct {
	Table string
	ID    int64
}

func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q id %d", ErrRowNotFound.Error(), e.Table, e.ID)
}

func (e *RowNotFoundError) Unwrap() error {
	return ErrRowNotFound
}

// StorageError wraps a driver or connectivity failure with the operation and
// table it occurred on.
type StorageError struct {
	Op    string
	Table string
	cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Table, e.cause)
}

func (e *StorageError) Unwrap() error {
	return e.cause
}
