// Package bootstrap prepares configured backends for service: it
// creates missing storage objects for every registered schema and
// ensures the admin account exists.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quillworks/quill/pkg/controller"
	"github.com/quillworks/quill/pkg/model"
	"github.com/quillworks/quill/pkg/rbac"
	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/security"
	"github.com/quillworks/quill/pkg/storage"
)

// AdminConfig identifies the account to ensure on startup. An empty
// username disables admin provisioning.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Initializer prepares one or more backends. Failures on one backend
// do not stop the others; Run errors only when every backend fails.
type Initializer struct {
	Registry *storage.Registry
	Adapters []storage.Adapter
	Perms    *rbac.Registry
	Admin    AdminConfig
	Log      *slog.Logger
}

// Run validates the permission registry, then initializes every
// adapter: storage objects first, then the admin account. It returns
// the adapters that initialized successfully, in configured order.
// Callers must serve traffic only against returned adapters; an
// adapter missing from the result has no storage objects and no admin
// account.
func (in *Initializer) Run(ctx context.Context) ([]storage.Adapter, error) {
	log := in.Log
	if log == nil {
		log = slog.Default()
	}
	if len(in.Adapters) == 0 {
		return nil, errors.New("bootstrap: no backends configured")
	}

	if in.Perms != nil {
		if added := in.Perms.Validate(); len(added) > 0 {
			log.Warn("undeclared permissions auto-registered", "permissions", added)
		}
	}

	initialized := make([]storage.Adapter, 0, len(in.Adapters))
	var failures []error
	for _, adapter := range in.Adapters {
		if err := in.initBackend(ctx, adapter, log); err != nil {
			log.Error("backend initialization failed",
				"backend", adapter.Kind().String(), "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", adapter.Kind(), err))
			continue
		}
		log.Info("backend initialized", "backend", adapter.Kind().String())
		initialized = append(initialized, adapter)
	}

	if len(initialized) == 0 {
		return nil, fmt.Errorf("bootstrap: all backends failed: %w", errors.Join(failures...))
	}
	return initialized, nil
}

func (in *Initializer) initBackend(ctx context.Context, adapter storage.Adapter, log *slog.Logger) error {
	for _, sch := range in.Registry.ForBackend(adapter.Kind()) {
		if err := adapter.EnsureStorage(ctx, sch); err != nil {
			return fmt.Errorf("ensure %s: %w", sch.Collection(), err)
		}
	}
	return in.ensureAdmin(ctx, adapter, log)
}

func (in *Initializer) ensureAdmin(ctx context.Context, adapter storage.Adapter, log *slog.Logger) error {
	if in.Admin.Username == "" {
		return nil
	}

	users, err := controller.New(schema.ModelUsers, adapter, in.Registry, controller.Hooks{
		PreCreate: model.NormalizeUserCreate,
	})
	if err != nil {
		return err
	}

	_, err = users.FindOne(ctx, storage.Record{"username": in.Admin.Username})
	if err == nil {
		log.Info("admin account present",
			"backend", adapter.Kind().String(), "username", in.Admin.Username)
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hashed, err := security.HashPassword(in.Admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	permissions := []string{}
	if in.Perms != nil {
		permissions = in.Perms.RolePermissions(model.RoleAdmin)
	}

	created, err := users.Create(ctx, storage.Record{
		"username":        in.Admin.Username,
		"email":           in.Admin.Email,
		"role":            model.RoleAdmin,
		"permissions":     permissions,
		"hashed_password": hashed,
	})
	if err != nil {
		// A concurrent initializer may have won the race; the account
		// existing is the goal either way.
		if errors.Is(err, storage.ErrConstraintViolation) {
			log.Info("admin account created concurrently",
				"backend", adapter.Kind().String(), "username", in.Admin.Username)
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	log.Info("admin account created",
		"backend", adapter.Kind().String(),
		"username", in.Admin.Username,
		"id", created.ID())
	return nil
}
