package schema

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quillworks/quill/pkg/storage"
)

// Model names as used by the registry and the controller.
const (
	ModelNotes = "notes"
	ModelUsers = "users"
)

// tableSchema implements storage.Schema as a declarative description:
// the storage-object DDL, the id column and its conversions, and
// per-field converters in each direction. Every concrete schema in
// this package is one of these values.
type tableSchema struct {
	collection string
	ddl        string
	unique     []string
	serverID   bool

	// idColumn is the backend's key field; "_id" for the document
	// store, "id" everywhere else.
	idColumn string

	// toDB converts a present domain field to the backend's native
	// value. Fields without a converter pass through.
	toDB map[string]func(any) (any, error)

	// fromDB converts a backend-native field back to the domain value.
	fromDB map[string]func(any) any

	// listDefaults are sequence fields that must read back as an empty
	// sequence when stored as null or absent.
	listDefaults []string
}

var _ storage.Schema = (*tableSchema)(nil)

func (s *tableSchema) Collection() string      { return s.collection }
func (s *tableSchema) CreateStatement() string { return s.ddl }
func (s *tableSchema) UniqueIndexes() []string { return s.unique }
func (s *tableSchema) ServerGeneratesID() bool { return s.serverID }

// ToDB converts a domain record, partial patch or exact-match filter
// to the backend's native shape. Only fields present in the input
// appear in the output.
func (s *tableSchema) ToDB(rec storage.Record) (storage.Record, error) {
	out := make(storage.Record, len(rec))
	for field, value := range rec {
		if conv := s.toDB[field]; conv != nil && value != nil {
			converted, err := conv(value)
			if err != nil {
				return nil, fmt.Errorf("convert %s.%s: %w", s.collection, field, err)
			}
			value = converted
		}
		if field == "id" && s.idColumn != "id" {
			field = s.idColumn
		}
		out[field] = value
	}
	return out, nil
}

// FromDB converts a backend-native record to the domain shape. The id
// is always a string afterwards, and sequence fields are never null.
func (s *tableSchema) FromDB(rec storage.Record) (storage.Record, error) {
	out := make(storage.Record, len(rec))
	for field, value := range rec {
		if field == s.idColumn && s.idColumn != "id" {
			field = "id"
		}
		if conv := s.fromDB[field]; conv != nil && value != nil {
			value = conv(value)
		}
		out[field] = value
	}
	for _, field := range s.listDefaults {
		if v, ok := out[field]; !ok || v == nil {
			out[field] = []string{}
		}
	}
	return out, nil
}

// toDB converters

func toPgArray(v any) (any, error) {
	list, ok := stringList(v)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
	return pq.StringArray(list), nil
}

func toJSONList(v any) (any, error) {
	return jsonList(v)
}

func toInt64(v any) (any, error) {
	switch id := v.(type) {
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a numeric id, got %q", id)
		}
		return n, nil
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	case float64:
		return int64(id), nil
	}
	return nil, fmt.Errorf("expected a numeric id, got %T", v)
}

func toObjectID(v any) (any, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, nil
	case string:
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("expected an object id, got %q", id)
		}
		return oid, nil
	}
	return nil, fmt.Errorf("expected an object id, got %T", v)
}

// fromDB converters

func fromUUID(v any) any      { return uuidString(v) }
func fromMSSQLUUID(v any) any { return mssqlUUIDString(v) }
func fromInt(v any) any       { return intString(v) }
func fromBool(v any) any      { return boolValue(v) }
func fromTime(v any) any      { return timeValue(v) }

func fromObjectID(v any) any {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	}
	return fmt.Sprintf("%v", v)
}

func fromPgArray(field string) func(any) any {
	return func(v any) any { return parsePostgresArray(field, v) }
}

func fromJSONList(field string) func(any) any {
	return func(v any) any { return parseJSONList(field, v) }
}

func fromNativeList(field string) func(any) any {
	return func(v any) any {
		list, ok := stringList(v)
		if !ok {
			slog.Warn("malformed list value, treating as empty",
				"field", field, "type", fmt.Sprintf("%T", v))
			return []string{}
		}
		return list
	}
}

