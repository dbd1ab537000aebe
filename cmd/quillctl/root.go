package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillworks/quill/pkg/config"
	"github.com/quillworks/quill/pkg/storage"
	"github.com/quillworks/quill/pkg/storage/mongodb"
	"github.com/quillworks/quill/pkg/storage/mysql"
	"github.com/quillworks/quill/pkg/storage/postgres"
	"github.com/quillworks/quill/pkg/storage/sqlserver"
)

var rootCmd = &cobra.Command{
	Use:   "quillctl",
	Short: "Run and manage the quill server",
	Long:  `quillctl runs the quill notes server and manages its storage backends.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger builds the process logger from the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}

// buildAdapters constructs an adapter per configured backend. The
// adapters are not yet connected.
func buildAdapters(cfg *config.Config, log *slog.Logger) ([]storage.Adapter, error) {
	backends, err := cfg.ParsedBackends()
	if err != nil {
		return nil, err
	}

	adapters := make([]storage.Adapter, 0, len(backends))
	for _, backend := range backends {
		url := cfg.URLFor(backend)
		switch backend {
		case storage.Postgres:
			adapters = append(adapters, postgres.New(url, log))
		case storage.MySQL:
			adapters = append(adapters, mysql.New(url, log))
		case storage.SQLServer:
			adapters = append(adapters, sqlserver.New(url, log))
		case storage.MongoDB:
			adapters = append(adapters, mongodb.New(url, cfg.MongoDatabase, log))
		default:
			return nil, fmt.Errorf("unsupported backend: %s", backend)
		}
	}
	return adapters, nil
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to load configuration:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}
	return cfg
}
