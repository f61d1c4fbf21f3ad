package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/ss-sim/internal/api"
	"github.com/talgya/ss-sim/internal/engine"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation in real time behind the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.API.Port, _ = cmd.Flags().GetInt("port")
			}
			origins, _ := cmd.Flags().GetStringSlice("cors-origin")

			s, err := newSession(cfg, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if cfg.API.AdminKey == "" {
				slog.Warn("SSSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
			}
			server := &api.Server{
				Sim:      s.sim,
				Eng:      s.eng,
				Port:     cfg.API.Port,
				AdminKey: cfg.API.AdminKey,
				Origins:  append(cfg.API.CORSOrigins, origins...),
			}
			server.Start()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			notifySignals(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					slog.Info("received signal, shutting down", "signal", sig)
					cancel()
				case <-ctx.Done():
				}
			}()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s players on %s land hexes.\n",
				humanize.Comma(int64(s.sim.StatsSnapshot().Population)), humanize.Comma(int64(s.landHexes)))
			fmt.Fprintf(out, "API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
			if s.startTick > 0 {
				fmt.Fprintf(out, "Resuming from tick %d (%s)\n", s.startTick, engine.SimTime(s.startTick))
			}
			fmt.Fprintln(out, "Starting simulation... (Ctrl+C to stop)")

			s.eng.Run(ctx)

			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP shutdown failed", "error", err)
			}

			slog.Info("final save...")
			s.save()
			fmt.Fprintln(out, "Simulation stopped.")
			return nil
		},
	}

	cmd.Flags().Int("port", 0, "HTTP port (overrides config)")
	cmd.Flags().StringSlice("cors-origin", nil, "Extra allowed CORS origin (repeatable)")
	return cmd
}
