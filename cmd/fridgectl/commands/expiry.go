package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newExpiryCmd(opts *rootOptions) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "expiry <item>",
		Short: "Predict how long a food item keeps in the fridge",
		Long:  "Ask the API for a shelf-life prediction, falling back to the built-in table when it is slow or unavailable.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored := time.Now()
			if from != "" {
				t, err := time.ParseInLocation(time.DateOnly, from, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --from %q (want YYYY-MM-DD): %w", from, err)
				}
				stored = t
			}

			item := strings.Join(args, " ")
			pred := opts.app.Predictor.Predict(cmd.Context(), item)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d days (%s), expires %s\n",
				pred.ItemName, pred.Days, pred.Source, pred.ExpiresOn(stored).Format(time.DateOnly))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Date the item went into the fridge (YYYY-MM-DD, default today)")
	return cmd
}
