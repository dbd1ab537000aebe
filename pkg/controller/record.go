package controller

import (
	"encoding/json"
	"fmt"

	"github.com/quillworks/quill/pkg/storage"
)

// AsRecord converts a typed payload to a record through its JSON form.
// Optional fields tagged omitempty drop out when unset, which is what
// makes typed patches partial.
func AsRecord(v any) (storage.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var rec storage.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return rec, nil
}
