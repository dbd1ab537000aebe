package storage

// Schema is the pure transformation bound to exactly one
// (model, backend) pair. It converts a domain record to the backend's
// native shape and back, and supplies the backend's storage-object
// creation statement.
//
// ToDB and FromDB must round-trip: for every valid domain record r,
// FromDB(ToDB(r)) reproduces r's field values exactly, with "id"
// normalized to a string.
type Schema interface {
	// Collection is the table or collection name.
	Collection() string

	// CreateStatement is the DDL that creates the storage object with
	// "create if not exists" semantics. Document stores return "" and
	// rely on Collection and UniqueIndexes instead.
	CreateStatement() string

	// UniqueIndexes lists fields that carry a unique index. Relational
	// schemas embed these in the DDL; the document-store adapter uses
	// them to emulate uniqueness.
	UniqueIndexes() []string

	// ServerGeneratesID declares whether the backend assigns the
	// record's key itself. When false the controller generates a string
	// id before transformation. This is a declared capability, not a
	// backend-name comparison, so adding a backend never touches
	// controller logic.
	ServerGeneratesID() bool

	// ToDB converts a domain record (or a partial patch, or an
	// exact-match filter) to the backend's native shape. Only fields
	// present in the input appear in the output.
	ToDB(rec Record) (Record, error)

	// FromDB converts a backend-native record to the domain shape with
	// a string "id". Malformed stored structured fields degrade to
	// their empty default rather than failing the read.
	FromDB(rec Record) (Record, error)
}
