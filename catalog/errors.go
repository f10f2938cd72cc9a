package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("catalog: database not found")
	ErrCorrupt       = errors.New("catalog: corrupt entry")
	ErrWriteRejected = errors.New("catalog: provider rejected write")
	ErrConflict      = errors.New("catalog: database changed since observed generation")
	ErrInvalidName   = errors.New("catalog: invalid database name")
	ErrTooLarge      = errors.New("catalog: payload too large")
)

// WriteError reports a provider or generation store failure during a write.
type WriteError struct {
	Op  string // "bump", "set", "del"
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("catalog: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
