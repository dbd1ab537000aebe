package storage

// Record is one persisted entity as a field-name-to-value mapping.
// Once a record has passed through a Schema's FromDB, its "id" field is
// always a string, regardless of how the backend stores keys.
type Record map[string]any

// ID returns the record's id field as a string, or "" if absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy of the record. Adapters and schemas
// clone before mutating so callers never see their input change.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
