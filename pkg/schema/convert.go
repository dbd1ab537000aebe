package schema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quillworks/quill/pkg/storage"
)

// stringList coerces the shapes a sequence field can come back in:
// []string directly, []any from a decoder, or a BSON array.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case pq.StringArray:
		return []string(list), true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	case primitive.A:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	default:
		return nil, false
	}
}

// parsePostgresArray decodes the textual array form the driver hands
// back for native array columns ("{a,b}"). Malformed content degrades
// to an empty list with a warning; corruption in one stored field must
// not fail the whole read.
func parsePostgresArray(field string, v any) []string {
	if v == nil {
		return []string{}
	}
	if list, ok := stringList(v); ok {
		return list
	}

	var raw string
	switch s := v.(type) {
	case string:
		raw = s
	case []byte:
		raw = string(s)
	default:
		slog.Warn("unexpected stored array value, using empty list",
			"field", field, "type", fmt.Sprintf("%T", v), "err", storage.ErrMalformedValue)
		return []string{}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return []string{}
	}
	if !strings.HasPrefix(raw, "{") || !strings.HasSuffix(raw, "}") {
		slog.Warn("malformed stored array, using empty list",
			"field", field, "err", storage.ErrMalformedValue)
		return []string{}
	}

	items := strings.Split(raw[1:len(raw)-1], ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.Trim(strings.TrimSpace(item), `"`)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseJSONList decodes a JSON-encoded sequence stored in a string
// column. Malformed content degrades to an empty list with a warning.
func parseJSONList(field string, v any) []string {
	if v == nil {
		return []string{}
	}
	if list, ok := stringList(v); ok {
		return list
	}

	var raw string
	switch s := v.(type) {
	case string:
		raw = s
	case []byte:
		raw = string(s)
	default:
		slog.Warn("unexpected stored list value, using empty list",
			"field", field, "type", fmt.Sprintf("%T", v), "err", storage.ErrMalformedValue)
		return []string{}
	}

	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("malformed stored list, using empty list",
			"field", field, "err", err)
		return []string{}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// jsonList encodes a sequence field for engines without array columns.
func jsonList(v any) (string, error) {
	list, ok := stringList(v)
	if !ok {
		return "", fmt.Errorf("field is not a sequence: %T", v)
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// uuidString normalizes a stored uuid value to its canonical string
// form. Drivers return uuids as strings or byte slices depending on
// the engine and protocol.
func uuidString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.ToLower(id)
	case []byte:
		if len(id) == 16 {
			parsed, err := uuid.FromBytes(id)
			if err == nil {
				return parsed.String()
			}
		}
		return strings.ToLower(string(id))
	case uuid.UUID:
		return id.String()
	default:
		return fmt.Sprint(v)
	}
}

// mssqlUUIDString normalizes a UNIQUEIDENTIFIER value. The driver
// returns the raw 16 bytes with the first three groups in
// little-endian order, per the GUID wire format.
func mssqlUUIDString(v any) string {
	raw, ok := v.([]byte)
	if !ok || len(raw) != 16 {
		return uuidString(v)
	}

	swapped := make([]byte, 16)
	copy(swapped, raw)
	swapped[0], swapped[1], swapped[2], swapped[3] = raw[3], raw[2], raw[1], raw[0]
	swapped[4], swapped[5] = raw[5], raw[4]
	swapped[6], swapped[7] = raw[7], raw[6]

	parsed, err := uuid.FromBytes(swapped)
	if err != nil {
		return uuidString(v)
	}
	return parsed.String()
}

// intString normalizes a serial key to its external string form.
func intString(v any) string {
	switch id := v.(type) {
	case int64:
		return strconv.FormatInt(id, 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case int:
		return strconv.Itoa(id)
	case []byte:
		return string(id)
	case string:
		return id
	default:
		return fmt.Sprint(v)
	}
}

// boolValue normalizes boolean columns; MySQL stores BOOL as
// TINYINT(1) and hands back integers.
func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case []byte:
		return len(b) > 0 && b[0] == '1'
	default:
		return false
	}
}

// timeValue normalizes timestamp columns to time.Time in UTC.
func timeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}
