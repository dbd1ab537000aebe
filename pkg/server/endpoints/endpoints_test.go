package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/quill/pkg/config"
	"github.com/quillworks/quill/pkg/controller"
	"github.com/quillworks/quill/pkg/model"
	"github.com/quillworks/quill/pkg/rbac"
	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/security"
	"github.com/quillworks/quill/pkg/server"
	"github.com/quillworks/quill/pkg/storage"
	"github.com/quillworks/quill/pkg/storage/storagetest"
)

type testEnv struct {
	server  *server.Server
	adapter *storagetest.Adapter
	signer  *security.Signer
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	registry := storage.NewRegistry()
	require.NoError(t, schema.RegisterAll(registry))
	registry.Freeze()

	adapter := storagetest.New(storage.Postgres).WithUnique("users", "username", "email")

	notes, err := controller.New(schema.ModelNotes, adapter, registry, controller.Hooks{
		PreCreate: model.NormalizeNoteCreate,
		PreUpdate: model.StampUpdate,
	})
	require.NoError(t, err)

	users, err := controller.New(schema.ModelUsers, adapter, registry, controller.Hooks{
		PreCreate: model.NormalizeUserCreate,
		PreUpdate: model.StampUpdate,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		ListenAddress:   "127.0.0.1:0",
		TokenSecret:     "test-secret",
		TokenTTLSeconds: 300,
	}
	signer := security.NewSigner(cfg.TokenSecret, 5*time.Minute)

	srv := server.NewServer(cfg, notes, users, rbac.Defaults(), signer,
		[]storage.Adapter{adapter}, nil)
	RegisterAll(srv)

	return &testEnv{server: srv, adapter: adapter, signer: signer}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) tokenFor(t *testing.T, role string, permissions ...string) string {
	t.Helper()
	token, err := e.signer.Issue("test-user", "tester", role, permissions)
	require.NoError(t, err)
	return token
}

func decodeRecord(t *testing.T, w *httptest.ResponseRecorder) storage.Record {
	t.Helper()
	var rec storage.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	return rec
}

func TestNotesCRUDOverHTTP(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "POST", "/api/notes", token, map[string]any{
		"title": "Note A",
		"tags":  []string{"go"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeRecord(t, w)
	id := created.ID()
	require.NotEmpty(t, id)
	assert.Equal(t, "private", created["visibility"])

	w = env.request(t, "GET", "/api/notes/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Note A", decodeRecord(t, w)["title"])

	w = env.request(t, "PATCH", "/api/notes/"+id, token, map[string]any{"content": "body"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body", decodeRecord(t, w)["content"])

	w = env.request(t, "GET", "/api/notes?visibility=private", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []storage.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = env.request(t, "DELETE", "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, "GET", "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, "DELETE", "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotesRequireAuthentication(t *testing.T) {
	env := newTestServer(t)

	w := env.request(t, "GET", "/api/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, "GET", "/api/notes", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestViewerCannotCreateNotes(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleViewer)

	w := env.request(t, "POST", "/api/notes", token, map[string]any{"title": "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, "GET", "/api/notes", token, nil)
	assert.Equal(t, http.StatusOK, w.Code, "viewer can still list")
}

func TestExplicitPermissionSupplementsRole(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleViewer, "notes:create")

	w := env.request(t, "POST", "/api/notes", token, map[string]any{"title": "granted"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateNoteValidation(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "POST", "/api/notes", token, map[string]any{"content": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserEndpointsSanitizeCredentials(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "POST", "/api/users", token, map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "changeme",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeRecord(t, w)
	assert.NotContains(t, created, "hashed_password")
	assert.NotContains(t, created, "password")
	assert.Equal(t, "user", created["role"])

	w = env.request(t, "GET", "/api/users/"+created.ID(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decodeRecord(t, w), "hashed_password")
}

func TestDuplicateUsernameConflicts(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	payload := map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "changeme",
	}
	w := env.request(t, "POST", "/api/users", token, payload)
	require.Equal(t, http.StatusCreated, w.Code)

	payload["email"] = "alice2@example.com"
	w = env.request(t, "POST", "/api/users", token, payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	env := newTestServer(t)
	admin := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "POST", "/api/users", admin, map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "changeme",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, "POST", "/api/auth/login", "", map[string]any{
		"username": "alice",
		"password": "changeme",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 300, resp.ExpiresIn)

	claims, err := env.signer.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)

	w = env.request(t, "GET", "/api/notes", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, "issued token works against the API")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestServer(t)
	admin := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "POST", "/api/users", admin, map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "changeme",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, "POST", "/api/auth/login", "", map[string]any{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, "POST", "/api/auth/login", "", map[string]any{
		"username": "ghost",
		"password": "changeme",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t)

	w := env.request(t, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Backends["postgres"])

	env.adapter.FailWith(assert.AnError)
	w = env.request(t, "GET", "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestVersionBanner(t *testing.T) {
	env := newTestServer(t)

	w := env.request(t, "GET", "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "quill", resp.Name)
}

func TestRolesAPIListGetUpdate(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "GET", "/api/roles", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var roles []RoleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.Equal(t, []string{"admin", "editor", "user", "viewer"}, names)

	w = env.request(t, "GET", "/api/roles/viewer", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var viewer RoleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewer))
	assert.Equal(t, "Read-only access to notes", viewer.Description)
	assert.Equal(t, []string{"notes:list", "notes:read"}, viewer.Permissions)

	w = env.request(t, "PUT", "/api/roles/viewer", token, RoleUpdateRequest{
		Permissions: []string{"notes:read"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated RoleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, []string{"notes:read"}, updated.Permissions)
	assert.Equal(t, "Read-only access to notes", updated.Description,
		"omitted description keeps the current one")
	assert.Equal(t, []string{"notes:read"}, env.server.Perms.RolePermissions("viewer"))
}

func TestRolesAPIUnknownRole(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "GET", "/api/roles/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, "PUT", "/api/roles/ghost", token, RoleUpdateRequest{
		Permissions: []string{"notes:read"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRolesAPIRejectsMissingPermissions(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "PUT", "/api/roles/viewer", token, map[string]any{
		"description": "something",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRolesAPIRequiresManagePermission(t *testing.T) {
	env := newTestServer(t)

	w := env.request(t, "GET", "/api/roles", env.tokenFor(t, "editor"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "editor lacks roles:manage")

	w = env.request(t, "GET", "/api/roles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPermissionsCatalog(t *testing.T) {
	env := newTestServer(t)
	token := env.tokenFor(t, model.RoleAdmin)

	w := env.request(t, "GET", "/api/permissions", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var perms []PermissionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &perms))

	byName := map[string]string{}
	for _, p := range perms {
		byName[p.Name] = p.Description
	}
	assert.Equal(t, "Create notes", byName["notes:create"])
	assert.Contains(t, byName, "roles:manage")
}
