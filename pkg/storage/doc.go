// Package storage defines the persistence abstraction for Quill.
//
// Every storage engine Quill can run against is represented by an
// Adapter: a uniform create/read/update/delete/list contract that owns
// a pooled connection to its engine. The divergences between engines —
// identifier representation, array encoding, client- versus
// server-generated keys, existence semantics — live inside the adapter
// and schema implementations, never in the callers.
//
// # Components
//
//   - Adapter: the per-backend CRUD contract (see the postgres, mysql,
//     sqlserver and mongodb subpackages)
//   - Schema: per-(model, backend) bidirectional data transformation
//     plus the backend's storage-object creation statement
//   - Registry: the process-wide (model, backend) -> Schema table,
//     populated at startup and frozen before serving begins
//   - Record: a field-name-to-value mapping with a string "id"
//
// # Errors
//
// Adapters translate engine errors into the shared taxonomy at the
// boundary: ErrNotFound, ErrConstraintViolation, ErrConnection. The
// taxonomy is part of the contract; callers match with errors.Is.
package storage
