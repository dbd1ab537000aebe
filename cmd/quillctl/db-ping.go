package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// dbPingCmd represents the db ping command
var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to every configured backend",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := newLogger(cfg)

		adapters, err := buildAdapters(cfg, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		failed := false
		for _, adapter := range adapters {
			if err := adapter.Connect(ctx); err != nil {
				fmt.Printf("%s: unreachable (%v)\n", adapter.Kind(), err)
				failed = true
				continue
			}
			if err := adapter.Ping(ctx); err != nil {
				fmt.Printf("%s: unreachable (%v)\n", adapter.Kind(), err)
				failed = true
			} else {
				fmt.Printf("%s: ok\n", adapter.Kind())
			}
			_ = adapter.Close(ctx)
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbPingCmd)
	dbPingCmd.Flags().DurationP("timeout", "t", 10*time.Second, "Overall timeout")
}
