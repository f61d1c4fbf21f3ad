package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/talgya/ss-sim/internal/health"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <health>",
		Short: "Print the band and status light for a health value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid health %q: %w", args[0], err)
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			state := health.Classify(uint32(h))
			light := health.IndicatorFor(uint32(h))

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"health":        h,
					"state":         state.String(),
					"infected":      state.IsInfected(),
					"progress_rate": state.ProgressRate(),
					"lower_limit":   state.LowerLimit(),
					"indicator":     light,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s (from %d, progress %d/tick, infected: %t)\n",
				h, state, state.LowerLimit(), state.ProgressRate(), state.IsInfected())
			fmt.Fprintf(cmd.OutOrStdout(), "light: %s\n", describeLight(light))
			return nil
		},
	}
}

func describeLight(in health.Indicator) string {
	switch {
	case in.Color == health.LightNone:
		return "off"
	case in.BlinkRate == health.BlinkNone:
		return in.Color.String() + " steady"
	default:
		return fmt.Sprintf("%s blinking at %d", in.Color, in.BlinkRate)
	}
}
