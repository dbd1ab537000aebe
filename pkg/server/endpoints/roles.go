package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quillworks/quill/pkg/rbac"
	"github.com/quillworks/quill/pkg/server"
)

// RoleResponse represents a role in the API response.
type RoleResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// RoleUpdateRequest carries a role's new permission set. An empty
// description keeps the current one.
type RoleUpdateRequest struct {
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// PermissionResponse represents a declared permission.
type PermissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RegisterRolesEndpoints registers the /api/roles and /api/permissions
// endpoints. All of them require the roles:manage permission.
func RegisterRolesEndpoints(s *server.Server) {
	perms := s.Perms

	s.Perms.RegisterRoute("GET", "/api/roles", "roles:manage")
	s.Perms.RegisterRoute("GET", "/api/roles/{name}", "roles:manage")
	s.Perms.RegisterRoute("PUT", "/api/roles/{name}", "roles:manage")
	s.Perms.RegisterRoute("GET", "/api/permissions", "roles:manage")

	rolesRouter := s.Router.PathPrefix("/api/roles").Subrouter()
	rolesRouter.Use(s.Auth.Middleware)
	rolesRouter.Use(s.Enforcer.Middleware)

	rolesRouter.HandleFunc("", handleListRoles(perms)).Methods("GET")
	rolesRouter.HandleFunc("/{name}", handleGetRole(perms)).Methods("GET")
	rolesRouter.HandleFunc("/{name}", handleUpdateRole(perms)).Methods("PUT")

	permsRouter := s.Router.PathPrefix("/api/permissions").Subrouter()
	permsRouter.Use(s.Auth.Middleware)
	permsRouter.Use(s.Enforcer.Middleware)

	permsRouter.HandleFunc("", handleListPermissions(perms)).Methods("GET")
}

func roleResponse(perms *rbac.Registry, name string) RoleResponse {
	description, _ := perms.DescribeRole(name)
	return RoleResponse{
		Name:        name,
		Description: description,
		Permissions: perms.RolePermissions(name),
	}
}

func handleListRoles(perms *rbac.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := perms.Roles()
		roles := make([]RoleResponse, 0, len(names))
		for _, name := range names {
			roles = append(roles, roleResponse(perms, name))
		}
		respondWithJSON(w, http.StatusOK, roles)
	}
}

func handleGetRole(perms *rbac.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		if _, ok := perms.DescribeRole(name); !ok {
			respondWithError(w, http.StatusNotFound, "role not found")
			return
		}
		respondWithJSON(w, http.StatusOK, roleResponse(perms, name))
	}
}

func handleUpdateRole(perms *rbac.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		current, ok := perms.DescribeRole(name)
		if !ok {
			respondWithError(w, http.StatusNotFound, "role not found")
			return
		}

		var payload RoleUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		defer func() { _ = r.Body.Close() }()

		if payload.Permissions == nil {
			respondWithError(w, http.StatusBadRequest, "permissions are required")
			return
		}

		description := payload.Description
		if description == "" {
			description = current
		}
		perms.RegisterRole(name, description, payload.Permissions...)
		respondWithJSON(w, http.StatusOK, roleResponse(perms, name))
	}
}

func handleListPermissions(perms *rbac.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := perms.Permissions()
		out := make([]PermissionResponse, 0, len(names))
		for _, name := range names {
			description, _ := perms.Describe(name)
			out = append(out, PermissionResponse{Name: name, Description: description})
		}
		respondWithJSON(w, http.StatusOK, out)
	}
}
