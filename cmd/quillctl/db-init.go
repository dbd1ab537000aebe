package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/storage"
)

// dbInitCmd represents the db init command
var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create storage objects on every configured backend",
	Long: `Create the tables, indexes and collections every registered schema
describes, on every configured backend. The operation is idempotent.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
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
		failed := false
		for _, adapter := range adapters {
			if err := adapter.Connect(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "%s: unable to connect: %v\n", adapter.Kind(), err)
				failed = true
				continue
			}

			for _, sch := range registry.ForBackend(adapter.Kind()) {
				if err := adapter.EnsureStorage(ctx, sch); err != nil {
					fmt.Fprintf(os.Stderr, "%s: ensure %s: %v\n", adapter.Kind(), sch.Collection(), err)
					failed = true
					continue
				}
				fmt.Printf("%s: %s ready\n", adapter.Kind(), sch.Collection())
			}
			_ = adapter.Close(ctx)
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
}
