// Package model defines the domain records Quill persists and the
// create/update shapes the API accepts.
//
// The persisted shape of each model differs per backend; those
// differences live in pkg/schema. Everything in this package is
// backend-agnostic. Field names in the JSON tags double as the record
// field names used by the storage layer.
package model
