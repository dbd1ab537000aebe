package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillworks/quill/pkg/bootstrap"
	"github.com/quillworks/quill/pkg/controller"
	"github.com/quillworks/quill/pkg/model"
	"github.com/quillworks/quill/pkg/rbac"
	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/security"
	"github.com/quillworks/quill/pkg/server"
	"github.com/quillworks/quill/pkg/server/endpoints"
	"github.com/quillworks/quill/pkg/storage"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the quill application server",
	Long: `Run the quill application server.

Configuration comes from a quill.yml file and QUILL_* environment
variables. At least one backend with a connection url and a token
secret are required.

On startup every configured backend gets its storage objects created
and the admin account is ensured, then the API server starts on the
first configured backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.TokenSecret == "" {
			fmt.Fprintln(os.Stderr, "QUILL_TOKEN_SECRET is required to run the server")
			os.Exit(1)
		}
		log := newLogger(cfg)

		registry := storage.NewRegistry()
		if err := schema.RegisterAll(registry); err != nil {
			fmt.Fprintln(os.Stderr, "Unable to register schemas:", err)
			os.Exit(1)
		}
		registry.Freeze()

		adapters, err := buildAdapters(cfg, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		connected := make([]storage.Adapter, 0, len(adapters))
		for _, adapter := range adapters {
			if err := adapter.Connect(ctx); err != nil {
				log.Error("unable to connect", "backend", adapter.Kind().String(), "err", err)
				continue
			}
			connected = append(connected, adapter)
			defer func(a storage.Adapter) { _ = a.Close(context.Background()) }(adapter)
		}
		if len(connected) == 0 {
			fmt.Fprintln(os.Stderr, "No backend is reachable")
			os.Exit(1)
		}

		perms := rbac.Defaults()
		initializer := &bootstrap.Initializer{
			Registry: registry,
			Adapters: connected,
			Perms:    perms,
			Admin: bootstrap.AdminConfig{
				Username: cfg.AdminUsername,
				Email:    cfg.AdminEmail,
				Password: cfg.AdminPassword,
			},
			Log: log,
		}
		ready, err := initializer.Run(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Bootstrap failed:", err)
			os.Exit(1)
		}

		// The API serves the first backend that initialized; the others
		// stay reachable for health checks. A backend that failed its
		// bootstrap is never served.
		primary := ready[0]
		if primary != connected[0] {
			log.Warn("first configured backend failed to initialize, serving fallback",
				"backend", primary.Kind().String())
		}
		notes, err := controller.New(schema.ModelNotes, primary, registry, controller.Hooks{
			PreCreate: model.NormalizeNoteCreate,
			PreUpdate: model.StampUpdate,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		users, err := controller.New(schema.ModelUsers, primary, registry, controller.Hooks{
			PreCreate: model.NormalizeUserCreate,
			PreUpdate: model.StampUpdate,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		signer := security.NewSigner(cfg.TokenSecret, cfg.TokenTTL())
		s := server.NewServer(cfg, notes, users, perms, signer, ready, log)
		endpoints.RegisterAll(s)

		errs := make(chan error, 1)
		go func() { errs <- s.Start() }()

		select {
		case err := <-errs:
			fmt.Fprintln(os.Stderr, "Server stopped:", err)
			os.Exit(1)
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = s.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
