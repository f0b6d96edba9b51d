package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrNotFound means the product id does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrForbidden means the caller is neither the owner nor an admin.
	ErrForbidden = errors.New("not allowed to modify this product")
	// ErrSKUConflict means another product already uses the SKU.
	ErrSKUConflict = errors.New("product with this SKU already exists")
	// ErrUnavailable means a required dependency was not reachable at boot.
	ErrUnavailable = errors.New("service dependency unavailable")
)

// ValidationError reports bad or missing input. User-correctable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError reports a fatal object store failure. Partial upload
// failures during multi-image create are not fatal and never produce
// this error; the single-image update path does.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError reports a record store failure. Wraps ErrSKUConflict
// when the failure was a unique SKU collision.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
