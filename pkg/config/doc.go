// Package config provides configuration management for quill.
//
// This package handles loading and validating server configuration
// from environment variables and configuration files.
//
// # Configuration Sources
//
// Configuration is loaded from:
//
//   - Environment variables (primary)
//   - Configuration files (optional)
//
// # Key Configuration Options
//
//   - QUILL_BACKENDS: Storage engines to serve
//   - QUILL_POSTGRES_URL / QUILL_MYSQL_URL / QUILL_SQLSERVER_URL /
//     QUILL_MONGO_URL: Connection strings per engine
//   - QUILL_TOKEN_SECRET: Access token signing secret
//   - QUILL_LISTEN_ADDRESS: Server bind address
//   - QUILL_LOG_LEVEL: Logging verbosity
package config
