package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection indicates the backend could not be reached. It is
	// transient; callers may retry with backoff.
	ErrConnection = errors.New("storage: connection failed")

	// ErrNotFound indicates no record exists for the given id.
	ErrNotFound = errors.New("storage: record not found")

	// ErrConstraintViolation indicates a uniqueness or foreign-key
	// conflict. Under concurrent conflicting writes exactly one caller
	// receives it.
	ErrConstraintViolation = errors.New("storage: constraint violation")

	// ErrSchemaNotRegistered indicates a (model, backend) pair has no
	// schema. This is a configuration error, fatal on first use.
	ErrSchemaNotRegistered = errors.New("storage: schema not registered")

	// ErrMalformedValue indicates a stored structured field could not
	// be decoded. It is never returned to callers of the CRUD contract:
	// the value degrades to its empty default and the condition is
	// logged.
	ErrMalformedValue = errors.New("storage: malformed stored value")
)

// ConnectionError wraps err so it matches ErrConnection.
func ConnectionError(err error) error {
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
