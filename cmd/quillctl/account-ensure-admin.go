package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillworks/quill/pkg/bootstrap"
	"github.com/quillworks/quill/pkg/rbac"
	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/storage"
)

// accountEnsureAdminCmd represents the account ensure-admin command
var accountEnsureAdminCmd = &cobra.Command{
	Use:   "ensure-admin",
	Short: "Ensure the admin account exists on every configured backend",
	Long: `Ensure the admin account exists on every configured backend,
creating it with the configured credentials when absent. Storage objects
are created first when missing. The operation is idempotent.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
			fmt.Fprintln(os.Stderr, "QUILL_ADMIN_USERNAME and QUILL_ADMIN_PASSWORD are required")
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

		ctx := context.Background()
		connected := make([]storage.Adapter, 0, len(adapters))
		for _, adapter := range adapters {
			if err := adapter.Connect(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "%s: unable to connect: %v\n", adapter.Kind(), err)
				continue
			}
			connected = append(connected, adapter)
			defer func(a storage.Adapter) { _ = a.Close(context.Background()) }(adapter)
		}

		initializer := &bootstrap.Initializer{
			Registry: registry,
			Adapters: connected,
			Perms:    rbac.Defaults(),
			Admin: bootstrap.AdminConfig{
				Username: cfg.AdminUsername,
				Email:    cfg.AdminEmail,
				Password: cfg.AdminPassword,
			},
			Log: log,
		}
		ready, err := initializer.Run(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if len(ready) < len(adapters) {
			fmt.Fprintf(os.Stderr, "admin account ensured on %d of %d configured backends\n",
				len(ready), len(adapters))
			os.Exit(1)
		}
	},
}

func init() {
	accountCmd.AddCommand(accountEnsureAdminCmd)
}
