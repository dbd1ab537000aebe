// Package schema holds the per-(model, backend) storage schemas.
//
// A schema is a pure transformation bound to one model on one backend:
// it converts domain records to the backend's native shape and back,
// and carries the backend's storage-object creation statement. Each
// backend encodes the same domain differently:
//
//   - postgres: uuid primary keys populated client-side, sequence
//     fields as native text[] arrays
//   - mysql: AUTO_INCREMENT integer keys assigned by the server,
//     sequence fields as JSON-encoded strings
//   - sqlserver: UNIQUEIDENTIFIER keys populated client-side, sequence
//     fields as JSON-encoded strings
//   - mongodb: ObjectID keys assigned on insert, native arrays
//
// Malformed stored sequence fields never fail a read: the value
// degrades to an empty sequence and a warning is logged.
//
// RegisterAll binds every schema into a storage.Registry during
// startup.
package schema
