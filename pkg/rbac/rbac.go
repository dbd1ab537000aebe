// Package rbac tracks the permission catalog, role grants and per-route
// requirements. The registry is advisory rather than strict: granting
// or requiring a permission nobody declared logs a warning and
// registers a placeholder instead of failing, so a typo in one route
// never takes the server down.
package rbac

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry holds declared permissions, role grants and route
// requirements. Safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	permissions  map[string]string
	roles        map[string][]string
	descriptions map[string]string
	routes       map[string][]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		permissions:  map[string]string{},
		roles:        map[string][]string{},
		descriptions: map[string]string{},
		routes:       map[string][]string{},
	}
}

// Defaults returns a registry seeded with the built-in permission
// catalog and roles.
func Defaults() *Registry {
	r := New()

	r.RegisterPermission("notes:create", "Create notes")
	r.RegisterPermission("notes:read", "Read a note")
	r.RegisterPermission("notes:update", "Update a note")
	r.RegisterPermission("notes:delete", "Delete a note")
	r.RegisterPermission("notes:list", "List notes")
	r.RegisterPermission("users:create", "Create users")
	r.RegisterPermission("users:read", "Read a user")
	r.RegisterPermission("users:update", "Update a user")
	r.RegisterPermission("users:delete", "Delete a user")
	r.RegisterPermission("users:list", "List users")
	r.RegisterPermission("roles:manage", "Manage roles and permissions")

	r.RegisterRole("admin", "Full access",
		"notes:create", "notes:read", "notes:update", "notes:delete", "notes:list",
		"users:create", "users:read", "users:update", "users:delete", "users:list",
		"roles:manage")
	r.RegisterRole("editor", "Manage notes, read users",
		"notes:create", "notes:read", "notes:update", "notes:delete", "notes:list",
		"users:read", "users:list")
	r.RegisterRole("viewer", "Read-only access to notes",
		"notes:read", "notes:list")
	r.RegisterRole("user", "Manage own notes",
		"notes:create", "notes:read", "notes:update", "notes:delete", "notes:list")

	return r
}

// RegisterPermission declares a permission. Re-registering replaces the
// description.
func (r *Registry) RegisterPermission(name, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permissions[name] = description
}

// RegisterRole grants permissions to a role, replacing any previous
// grant. Unknown permissions are registered as placeholders with a
// warning.
func (r *Registry) RegisterRole(name, description string, permissions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptions[name] = description
	r.roles[name] = r.validate("role "+name, permissions)
}

// DescribeRole returns a role's description and whether it exists.
func (r *Registry) DescribeRole(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descriptions[name]
	return desc, ok
}

// RegisterRoute declares the permissions a route requires. All of them
// must be held for access.
func (r *Registry) RegisterRoute(method, path string, permissions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[method+" "+path] = r.validate(method+" "+path, permissions)
}

// RouteRequirements returns the declared requirements for a route, or
// nil when the route was never declared.
func (r *Registry) RouteRequirements(method, path string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	required := r.routes[method+" "+path]
	out := make([]string, len(required))
	copy(out, required)
	return out
}

// Permissions returns all declared permission names, sorted.
func (r *Registry) Permissions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.permissions))
	for name := range r.permissions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Roles returns all declared role names, sorted.
func (r *Registry) Roles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.roles))
	for name := range r.roles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Describe returns a permission's description and whether it exists.
func (r *Registry) Describe(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.permissions[name]
	return desc, ok
}

// RolePermissions returns the permissions granted to a role, sorted.
// Unknown roles have no permissions.
func (r *Registry) RolePermissions(role string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	granted := r.roles[role]
	out := make([]string, len(granted))
	copy(out, granted)
	sort.Strings(out)
	return out
}

// Effective returns the union of a role's grants and a user's explicit
// permissions, sorted.
func (r *Registry) Effective(role string, explicit []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := map[string]struct{}{}
	for _, p := range r.roles[role] {
		set[p] = struct{}{}
	}
	for _, p := range explicit {
		set[p] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HasAll reports whether granted covers every required permission.
// With nothing required it reports true.
func HasAll(granted []string, required ...string) bool {
	set := toSet(granted)
	for _, p := range required {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

// HasAny reports whether granted covers at least one required
// permission. With nothing required it reports true.
func HasAny(granted []string, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	set := toSet(granted)
	for _, p := range required {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

// Validate re-checks that every permission referenced by a role or a
// route is declared, auto-registering a placeholder for any that is
// not. It returns the names it had to register, sorted; an empty
// result means every reference was already declared. The bootstrap
// runs this once before backends are initialized.
func (r *Registry) Validate() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var registered []string
	check := func(context string, permissions []string) {
		for _, p := range permissions {
			if _, ok := r.permissions[p]; !ok {
				slog.Warn("unknown permission referenced, registering placeholder",
					"permission", p, "referenced_by", context)
				r.permissions[p] = "(undeclared)"
				registered = append(registered, p)
			}
		}
	}
	for name, permissions := range r.roles {
		check("role "+name, permissions)
	}
	for route, permissions := range r.routes {
		check(route, permissions)
	}
	sort.Strings(registered)
	return registered
}

// validate is called with the lock held. Unknown permissions get a
// placeholder registration and a warning.
func (r *Registry) validate(context string, permissions []string) []string {
	out := make([]string, 0, len(permissions))
	for _, p := range permissions {
		if _, ok := r.permissions[p]; !ok {
			slog.Warn("unknown permission referenced, registering placeholder",
				"permission", p, "referenced_by", context)
			r.permissions[p] = "(undeclared)"
		}
		out = append(out, p)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
