package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/ss-sim/internal/engine"
	"github.com/talgya/ss-sim/internal/persistence"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the latest saved events of the current run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Storage.Path == "" {
				return fmt.Errorf("storage is disabled (storage.path is empty)")
			}
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			db, err := persistence.Open(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			events, err := db.RecentEvents(limit)
			if err != nil {
				return fmt.Errorf("read events: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(events)
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events recorded.")
				return nil
			}
			for _, e := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %-9s %s\n", engine.SimTime(e.Tick), e.Category, e.Description)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of events to show")
	return cmd
}
