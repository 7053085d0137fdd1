package memorybank

import "fmt"

// StorageError wraps any failure of the backing record store. The mutation
// already computed in memory is discarded, never partially persisted.
type StorageError struct {
	Record string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure on record %q: %v", e.Record, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a malformed update before any state is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned by reads that have no sensible empty default,
// such as looking up a single page by id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
