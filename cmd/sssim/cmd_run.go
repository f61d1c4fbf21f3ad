package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/ss-sim/internal/engine"
	"github.com/talgya/ss-sim/internal/health"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless for a fixed number of ticks",
		Long: `Run advances the simulation as fast as possible, logging a health
report and saving a snapshot every report_every ticks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ticks") {
				cfg.Simulation.Ticks, _ = cmd.Flags().GetUint64("ticks")
			}
			fresh, _ := cmd.Flags().GetBool("fresh")
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := newSession(cfg, fresh)
			if err != nil {
				return err
			}
			defer s.Close()

			slog.Info("headless run", "ticks", cfg.Simulation.Ticks, "from", s.startTick)
			s.eng.RunTicks(cfg.Simulation.Ticks)
			s.save()

			st := s.sim.StatsSnapshot()
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"tick":  s.eng.Tick(),
					"stats": st,
				})
			}
			printSummary(cmd, s.eng.Tick(), st)
			return nil
		},
	}

	cmd.Flags().Uint64("ticks", 0, "Number of ticks to run (overrides config)")
	cmd.Flags().Bool("fresh", false, "Ignore saved state and spawn a new population")
	return cmd
}

func printSummary(cmd *cobra.Command, tick uint64, st engine.SimStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (tick %s)\n", engine.SimTime(tick), humanize.Comma(int64(tick)))
	fmt.Fprintf(out, "%s players, %s infected, %s cat resistant, %s treatments\n",
		humanize.Comma(int64(st.Population)),
		humanize.Comma(int64(st.Infected())),
		humanize.Comma(int64(st.CatResistant)),
		humanize.Comma(int64(st.Treatments)),
	)
	for _, hs := range health.AllStates() {
		fmt.Fprintf(out, "  %-16s %s\n", hs, humanize.Comma(int64(st.Count(hs))))
	}
}
