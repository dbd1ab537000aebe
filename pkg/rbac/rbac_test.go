package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsRoleGrantsAreDeclared(t *testing.T) {
	r := Defaults()
	declared := toSet(r.Permissions())

	for _, role := range []string{"admin", "editor", "viewer", "user"} {
		for _, p := range r.RolePermissions(role) {
			_, ok := declared[p]
			assert.True(t, ok, "role %s grants undeclared permission %s", role, p)
		}
	}
}

func TestUnknownPermissionGetsPlaceholder(t *testing.T) {
	r := New()
	r.RegisterRole("ops", "Operations crew", "systems:reboot")

	desc, ok := r.Describe("systems:reboot")
	assert.True(t, ok, "referencing an unknown permission registers it")
	assert.Equal(t, "(undeclared)", desc)
	assert.Equal(t, []string{"systems:reboot"}, r.RolePermissions("ops"))

	desc, ok = r.DescribeRole("ops")
	assert.True(t, ok)
	assert.Equal(t, "Operations crew", desc)
}

func TestValidateRegistersMissingReferences(t *testing.T) {
	r := Defaults()
	assert.Empty(t, r.Validate(), "defaults declare everything they reference")

	// A grant written behind the registry's back, the way a future
	// persistence layer might restore one.
	r.roles["ops"] = []string{"systems:reboot"}
	r.routes["POST /api/reboot"] = []string{"systems:reboot"}

	assert.Equal(t, []string{"systems:reboot"}, r.Validate())
	desc, ok := r.Describe("systems:reboot")
	assert.True(t, ok)
	assert.Equal(t, "(undeclared)", desc)
	assert.Empty(t, r.Validate(), "a second pass finds nothing new")
}

func TestEffectiveUnionsRoleAndExplicit(t *testing.T) {
	r := Defaults()

	effective := r.Effective("viewer", []string{"notes:create", "notes:read"})
	assert.Equal(t, []string{"notes:create", "notes:list", "notes:read"}, effective)

	assert.Empty(t, r.Effective("ghost-role", nil))
}

func TestHasAll(t *testing.T) {
	granted := []string{"notes:read", "notes:list"}

	assert.True(t, HasAll(granted, "notes:read"))
	assert.True(t, HasAll(granted, "notes:read", "notes:list"))
	assert.False(t, HasAll(granted, "notes:read", "notes:delete"))
	assert.True(t, HasAll(granted), "nothing required means allowed")
	assert.False(t, HasAll(nil, "notes:read"))
}

func TestHasAny(t *testing.T) {
	granted := []string{"notes:read"}

	assert.True(t, HasAny(granted, "notes:read", "notes:delete"))
	assert.False(t, HasAny(granted, "notes:delete"))
	assert.True(t, HasAny(granted))
}

func TestRouteRequirements(t *testing.T) {
	r := Defaults()
	r.RegisterRoute("DELETE", "/api/notes/{id}", "notes:delete")

	assert.Equal(t, []string{"notes:delete"}, r.RouteRequirements("DELETE", "/api/notes/{id}"))
	assert.Empty(t, r.RouteRequirements("GET", "/api/unknown"))
}
