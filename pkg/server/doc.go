// Package server provides the HTTP server for the quill API.
//
// This package implements the core HTTP server that handles all quill
// REST API requests. It uses gorilla/mux for routing and provides
// middleware for authentication, permission enforcement and rate
// limiting.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, notes, users, perms, signer, adapters, log)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Notes, Users: CRUD controllers bound to the primary backend
//   - Perms: permission registry with route requirements
//   - Signer: access token issuance and validation
//   - Adapters: connected backends, used by the health endpoint
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//	endpoints.RegisterAll(srv)
//
// This registers:
//
//   - /api/auth/login - Credential exchange for an access token
//   - /api/notes - Note CRUD
//   - /api/users - User CRUD
//   - /health - Backend connectivity
//   - / - Version banner
package server
