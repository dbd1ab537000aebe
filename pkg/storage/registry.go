package storage

import (
	"fmt"
	"sort"
	"sync"
)

type schemaKey struct {
	model   string
	backend Backend
}

// Registry maps (model, backend) pairs to their Schema. Registration
// is explicit and happens only during startup; Freeze marks the end of
// the population phase, after which the map is read-only and lookups
// need no locking discipline from callers.
//
// Tests construct isolated registries rather than sharing a global
// one, so suites can run in parallel without cross-contamination.
type Registry struct {
	mu      sync.RWMutex
	schemas map[schemaKey]Schema
	frozen  bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[schemaKey]Schema{}}
}

// Register binds schema to the (model, backend) pair. Registering
// after Freeze or registering a pair twice is a programming error.
func (r *Registry) Register(model string, backend Backend, schema Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("registry is frozen, cannot register %s/%s", model, backend)
	}
	key := schemaKey{model, backend}
	if _, ok := r.schemas[key]; ok {
		return fmt.Errorf("schema already registered for %s/%s", model, backend)
	}
	r.schemas[key] = schema
	return nil
}

// Freeze ends the registration phase. It is called once, before the
// server begins accepting traffic.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Schema returns the schema for the (model, backend) pair, or
// ErrSchemaNotRegistered if absent.
func (r *Registry) Schema(model string, backend Backend) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.schemas[schemaKey{model, backend}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrSchemaNotRegistered, model, backend)
	}
	return schema, nil
}

// Has reports whether a schema is registered for the pair.
func (r *Registry) Has(model string, backend Backend) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[schemaKey{model, backend}]
	return ok
}

// SchemasFor returns every backend's schema for the given model.
func (r *Registry) SchemasFor(model string) map[Backend]Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := map[Backend]Schema{}
	for key, schema := range r.schemas {
		if key.model == model {
			out[key.backend] = schema
		}
	}
	return out
}

// ForBackend returns every schema registered for the given backend,
// ordered by model name. The admin initializer iterates this to create
// storage objects.
func (r *Registry) ForBackend(backend Backend) []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.schemas))
	byModel := map[string]Schema{}
	for key, schema := range r.schemas {
		if key.backend == backend {
			models = append(models, key.model)
			byModel[key.model] = schema
		}
	}
	sort.Strings(models)

	out := make([]Schema, 0, len(models))
	for _, m := range models {
		out = append(out, byModel[m])
	}
	return out
}
