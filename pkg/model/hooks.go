package model

import (
	"time"

	"github.com/quillworks/quill/pkg/storage"
)

// The functions below are the model-specific strategies handed to the
// generic controller at construction time. They operate on records so
// the controller stays ignorant of any particular model.

// NormalizeNoteCreate fills note defaults: an omitted tags sequence
// becomes an empty one (never a null marker), visibility defaults to
// private, and the creation timestamp is stamped here so it is uniform
// across backends.
func NormalizeNoteCreate(rec storage.Record) storage.Record {
	rec = rec.Clone()
	if tags, ok := rec["tags"]; !ok || tags == nil {
		rec["tags"] = []string{}
	}
	if v, _ := rec["visibility"].(string); v == "" {
		rec["visibility"] = VisibilityPrivate
	}
	if _, ok := rec["created_at"]; !ok {
		rec["created_at"] = time.Now().UTC().Truncate(time.Millisecond)
	}
	return rec
}

// NormalizeUserCreate fills user defaults: empty permissions, active
// by default, role "user" when unset.
func NormalizeUserCreate(rec storage.Record) storage.Record {
	rec = rec.Clone()
	if perms, ok := rec["permissions"]; !ok || perms == nil {
		rec["permissions"] = []string{}
	}
	if r, _ := rec["role"].(string); r == "" {
		rec["role"] = RoleUser
	}
	if _, ok := rec["is_active"]; !ok {
		rec["is_active"] = true
	}
	if _, ok := rec["created_at"]; !ok {
		rec["created_at"] = time.Now().UTC().Truncate(time.Millisecond)
	}
	return rec
}

// StampUpdate records the update time on a patch.
func StampUpdate(rec storage.Record) storage.Record {
	rec = rec.Clone()
	rec["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	return rec
}
