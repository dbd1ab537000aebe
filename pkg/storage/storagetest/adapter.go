// Package storagetest provides an in-memory storage.Adapter for unit
// tests. It honors the adapter contract closely enough to stand in for
// a real engine: not-found and constraint-violation sentinels, optional
// server-generated keys and exact-match filtering.
package storagetest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/quillworks/quill/pkg/storage"
)

// Adapter is an in-memory implementation of storage.Adapter.
type Adapter struct {
	mu        sync.Mutex
	kind      storage.Backend
	serverIDs bool
	nextID    int64
	unique    map[string][]string
	data      map[string]map[string]storage.Record
	order     map[string][]string
	failWith  error

	// EnsureStorageCalls records the schemas passed to EnsureStorage,
	// in order.
	EnsureStorageCalls []string
}

var _ storage.Adapter = (*Adapter)(nil)

// New returns an empty adapter reporting the given backend kind.
func New(kind storage.Backend) *Adapter {
	return &Adapter{
		kind:   kind,
		unique: map[string][]string{},
		data:   map[string]map[string]storage.Record{},
		order:  map[string][]string{},
	}
}

// WithServerIDs makes Create assign sequential integer keys, the way
// engines with server-side key generation do.
func (a *Adapter) WithServerIDs() *Adapter {
	a.serverIDs = true
	return a
}

// WithUnique declares fields whose values must be unique within a
// collection.
func (a *Adapter) WithUnique(collection string, fields ...string) *Adapter {
	a.unique[collection] = append(a.unique[collection], fields...)
	return a
}

// FailWith makes every subsequent call return err. Pass nil to clear.
func (a *Adapter) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failWith = err
}

// Seed inserts a record directly, bypassing key generation and
// uniqueness checks.
func (a *Adapter) Seed(collection string, rec storage.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.put(collection, rec.ID(), rec.Clone())
}

func (a *Adapter) Kind() storage.Backend { return a.kind }

func (a *Adapter) Connect(ctx context.Context) error { return a.failure() }
func (a *Adapter) Close(ctx context.Context) error   { return nil }
func (a *Adapter) Ping(ctx context.Context) error    { return a.failure() }

func (a *Adapter) EnsureStorage(ctx context.Context, schema storage.Schema) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return a.failWith
	}
	a.EnsureStorageCalls = append(a.EnsureStorageCalls, schema.Collection())
	for _, field := range schema.UniqueIndexes() {
		a.unique[schema.Collection()] = append(a.unique[schema.Collection()], field)
	}
	return nil
}

func (a *Adapter) Create(ctx context.Context, collection string, rec storage.Record) (storage.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return nil, a.failWith
	}

	stored := rec.Clone()
	id := stored.ID()
	if a.serverIDs {
		a.nextID++
		id = strconv.FormatInt(a.nextID, 10)
		stored["id"] = id
	}
	if id == "" {
		return nil, fmt.Errorf("create %s: missing id", collection)
	}
	if _, exists := a.data[collection][id]; exists {
		return nil, fmt.Errorf("%w: duplicate key %q", storage.ErrConstraintViolation, id)
	}
	if err := a.checkUnique(collection, id, stored); err != nil {
		return nil, err
	}

	a.put(collection, id, stored)
	return stored.Clone(), nil
}

func (a *Adapter) Read(ctx context.Context, collection, id string) (storage.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return nil, a.failWith
	}
	rec, ok := a.data[collection][id]
	if !ok {
		return nil, a.notFound(collection, id)
	}
	return rec.Clone(), nil
}

func (a *Adapter) Update(ctx context.Context, collection, id string, patch storage.Record) (storage.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return nil, a.failWith
	}
	rec, ok := a.data[collection][id]
	if !ok {
		return nil, a.notFound(collection, id)
	}

	updated := rec.Clone()
	for field, value := range patch {
		if field == "id" {
			continue
		}
		updated[field] = value
	}
	if err := a.checkUnique(collection, id, updated); err != nil {
		return nil, err
	}

	a.data[collection][id] = updated
	return updated.Clone(), nil
}

func (a *Adapter) Delete(ctx context.Context, collection, id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return false, a.failWith
	}
	if _, ok := a.data[collection][id]; !ok {
		return false, nil
	}
	delete(a.data[collection], id)
	ids := a.order[collection]
	for i, existing := range ids {
		if existing == id {
			a.order[collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return true, nil
}

func (a *Adapter) List(ctx context.Context, collection string, filter storage.Record, skip, limit int) ([]storage.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return nil, a.failWith
	}

	matched := []storage.Record{}
	for _, id := range a.order[collection] {
		rec := a.data[collection][id]
		if matches(rec, filter) {
			matched = append(matched, rec)
		}
	}

	if skip >= len(matched) {
		return []storage.Record{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]storage.Record, len(matched))
	for i, rec := range matched {
		out[i] = rec.Clone()
	}
	return out, nil
}

func (a *Adapter) put(collection, id string, rec storage.Record) {
	if a.data[collection] == nil {
		a.data[collection] = map[string]storage.Record{}
	}
	a.data[collection][id] = rec
	a.order[collection] = append(a.order[collection], id)
}

func (a *Adapter) checkUnique(collection, id string, rec storage.Record) error {
	for _, field := range a.unique[collection] {
		value, ok := rec[field]
		if !ok || value == nil {
			continue
		}
		for otherID, other := range a.data[collection] {
			if otherID == id {
				continue
			}
			if fmt.Sprint(other[field]) == fmt.Sprint(value) {
				return fmt.Errorf("%w: duplicate %s", storage.ErrConstraintViolation, field)
			}
		}
	}
	return nil
}

func (a *Adapter) failure() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failWith
}

func (a *Adapter) notFound(collection, id string) error {
	return fmt.Errorf("%w: %s/%s", storage.ErrNotFound, collection, id)
}

func matches(rec, filter storage.Record) bool {
	for field, want := range filter {
		if fmt.Sprint(rec[field]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
