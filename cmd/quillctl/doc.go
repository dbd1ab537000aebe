// Package main provides quillctl, the CLI for the quill notes server.
//
// quill is a configuration-driven persistence service: the same CRUD
// API runs against PostgreSQL, MySQL, SQL Server or MongoDB, selected
// by configuration rather than code.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/storage: adapter contract, backend kinds, schema registry
//   - pkg/storage/{postgres,mysql,sqlserver,mongodb}: backend adapters
//   - pkg/schema: per-backend schemas for the notes and users models
//   - pkg/controller: model-generic CRUD over any adapter
//   - pkg/bootstrap: storage creation and admin provisioning
//   - pkg/rbac: permission catalog, roles and route requirements
//   - pkg/server, pkg/server/endpoints: HTTP API
//   - pkg/security: password hashing and access tokens
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Point quill at a backend
//	export QUILL_BACKENDS=postgres
//	export QUILL_POSTGRES_URL=postgres://quill@localhost/quill
//	export QUILL_TOKEN_SECRET=$(openssl rand -hex 32)
//	export QUILL_ADMIN_USERNAME=admin
//	export QUILL_ADMIN_PASSWORD=changeme
//
//	# Create storage objects
//	quillctl db init
//
//	# Start the server
//	quillctl server
//
// # Environment Variables
//
//   - QUILL_BACKENDS: Storage engines to serve
//   - QUILL_POSTGRES_URL / QUILL_MYSQL_URL / QUILL_SQLSERVER_URL /
//     QUILL_MONGO_URL: Connection strings
//   - QUILL_TOKEN_SECRET: Access token signing secret
//   - QUILL_LOG_LEVEL: Log level (debug, info, warn, error)
//   - QUILL_LISTEN_ADDRESS: Server bind address (default :8080)
package main
