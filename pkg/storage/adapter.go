package storage

import "context"

// Adapter is the uniform persistence contract implemented once per
// backend kind. An adapter owns one pooled connection to its engine
// for the process lifetime; connections are never shared across
// backend kinds.
//
// Records passed to Create and Update are already in the backend's
// native shape (a Schema's ToDB output); records returned are the
// backend's native shape and go back through FromDB before reaching
// domain code.
type Adapter interface {
	// Kind reports which backend this adapter talks to.
	Kind() Backend

	// Connect establishes the pooled connection. A failure wraps
	// ErrConnection.
	Connect(ctx context.Context) error

	// Close releases the pooled connection.
	Close(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// EnsureStorage creates the schema's storage object (table or
	// collection, plus indexes) if it does not exist. Safe to re-run.
	EnsureStorage(ctx context.Context, schema Schema) error

	// Create inserts rec and returns the stored record including its
	// final id. Uniqueness and foreign-key conflicts wrap
	// ErrConstraintViolation.
	Create(ctx context.Context, collection string, rec Record) (Record, error)

	// Read returns the record with the given id, or ErrNotFound.
	Read(ctx context.Context, collection, id string) (Record, error)

	// Update applies a partial update and returns the updated record,
	// or ErrNotFound if no record has the given id.
	Update(ctx context.Context, collection, id string, patch Record) (Record, error)

	// Delete removes the record with the given id. It reports whether a
	// record was removed; deleting an absent record is not an error.
	Delete(ctx context.Context, collection, id string) (bool, error)

	// List returns records matching the exact-match filter, paginated
	// by offset and limit. Ordering is insertion order where the engine
	// provides one, otherwise unspecified but stable within one query.
	List(ctx context.Context, collection string, filter Record, skip, limit int) ([]Record, error)
}
