package endpoints

import "github.com/quillworks/quill/pkg/server"

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterAuthEndpoints(srv)
	RegisterNotesEndpoints(srv)
	RegisterUsersEndpoints(srv)
	RegisterRolesEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
