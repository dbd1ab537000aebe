package controller

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quillworks/quill/pkg/storage"
)

// Hooks are optional per-model callbacks. Each receives a record it may
// modify in place and returns the record to use. Nil hooks are skipped.
type Hooks struct {
	// PreCreate runs before key generation and conversion. Models use
	// it to apply defaults and stamp created_at.
	PreCreate func(storage.Record) storage.Record

	// PreUpdate runs on the patch before conversion. Models use it to
	// stamp updated_at.
	PreUpdate func(storage.Record) storage.Record

	// PostRead runs on every record returned to the caller.
	PostRead func(storage.Record) storage.Record
}

// Controller executes CRUD for one model against one backend. All
// records crossing its boundary are domain-shaped; the schema resolved
// at construction time handles the backend-native encoding.
type Controller struct {
	model   string
	adapter storage.Adapter
	schema  storage.Schema
	hooks   Hooks
}

// New binds model to adapter, resolving the schema for the adapter's
// backend from registry. A missing schema is a wiring error and fails
// construction.
func New(model string, adapter storage.Adapter, registry *storage.Registry, hooks Hooks) (*Controller, error) {
	sch, err := registry.Schema(model, adapter.Kind())
	if err != nil {
		return nil, fmt.Errorf("controller for %s: %w", model, err)
	}
	return &Controller{
		model:   model,
		adapter: adapter,
		schema:  sch,
		hooks:   hooks,
	}, nil
}

// Model returns the model name this controller serves.
func (c *Controller) Model() string { return c.model }

// Backend returns the backend the bound adapter talks to.
func (c *Controller) Backend() storage.Backend { return c.adapter.Kind() }

// Create stores a new record and returns it in its stored form,
// including the assigned key. When the backend does not generate keys
// server-side, a fresh UUID is assigned here.
func (c *Controller) Create(ctx context.Context, payload storage.Record) (storage.Record, error) {
	rec := payload.Clone()
	if c.hooks.PreCreate != nil {
		rec = c.hooks.PreCreate(rec)
	}
	if !c.schema.ServerGeneratesID() && rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}

	native, err := c.schema.ToDB(rec)
	if err != nil {
		return nil, err
	}
	created, err := c.adapter.Create(ctx, c.schema.Collection(), native)
	if err != nil {
		return nil, err
	}
	return c.fromDB(created)
}

// Read returns the record with the given key, or storage.ErrNotFound.
func (c *Controller) Read(ctx context.Context, id string) (storage.Record, error) {
	rec, err := c.adapter.Read(ctx, c.schema.Collection(), id)
	if err != nil {
		return nil, err
	}
	return c.fromDB(rec)
}

// Update applies a partial patch and returns the full updated record.
// The key field is never patchable.
func (c *Controller) Update(ctx context.Context, id string, patch storage.Record) (storage.Record, error) {
	p := patch.Clone()
	delete(p, "id")
	if c.hooks.PreUpdate != nil {
		p = c.hooks.PreUpdate(p)
	}

	native, err := c.schema.ToDB(p)
	if err != nil {
		return nil, err
	}
	updated, err := c.adapter.Update(ctx, c.schema.Collection(), id, native)
	if err != nil {
		return nil, err
	}
	return c.fromDB(updated)
}

// Delete removes the record with the given key. It reports false, with
// no error, when no such record exists.
func (c *Controller) Delete(ctx context.Context, id string) (bool, error) {
	return c.adapter.Delete(ctx, c.schema.Collection(), id)
}

// List returns records matching the exact-match filter, in stable key
// order, honoring skip and limit. A nil filter matches everything.
func (c *Controller) List(ctx context.Context, filter storage.Record, skip, limit int) ([]storage.Record, error) {
	var native storage.Record
	if len(filter) > 0 {
		converted, err := c.schema.ToDB(filter)
		if err != nil {
			return nil, err
		}
		native = converted
	}

	records, err := c.adapter.List(ctx, c.schema.Collection(), native, skip, limit)
	if err != nil {
		return nil, err
	}

	out := make([]storage.Record, 0, len(records))
	for _, rec := range records {
		domain, err := c.fromDB(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, domain)
	}
	return out, nil
}

// FindOne returns the first record matching the filter, or
// storage.ErrNotFound when nothing matches.
func (c *Controller) FindOne(ctx context.Context, filter storage.Record) (storage.Record, error) {
	records, err := c.List(ctx, filter, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, c.model)
	}
	return records[0], nil
}

func (c *Controller) fromDB(rec storage.Record) (storage.Record, error) {
	domain, err := c.schema.FromDB(rec)
	if err != nil {
		return nil, err
	}
	if c.hooks.PostRead != nil {
		domain = c.hooks.PostRead(domain)
	}
	return domain, nil
}
