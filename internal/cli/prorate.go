package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
)

func newProrateCommand() *cobra.Command {
	var (
		oldPrice  string
		newPrice  string
		days      int
		cycle     int
		increment string
	)

	cmd := &cobra.Command{
		Use:   "prorate",
		Short: "Preview a mid-cycle plan change offline",
		Long: `Compute the proration of a plan change and the credits it would post.

Examples:
  creditctl prorate --old 100 --new 200 --days 20 --cycle 30
  creditctl prorate --old 200 --new 100 --days 20 --cycle 30 --increment 1.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oldMicros, err := money.ParseMicros(oldPrice)
			if err != nil {
				return fmt.Errorf("--old: %w", err)
			}
			newMicros, err := money.ParseMicros(newPrice)
			if err != nil {
				return fmt.Errorf("--new: %w", err)
			}
			inc, err := domain.ParseIncrement(increment)
			if err != nil {
				return err
			}

			amount, err := domain.ComputeProration(oldMicros, newMicros, days, cycle)
			if err != nil {
				return err
			}
			credits, err := domain.Convert(amount, domain.RoundingPolicy{Increment: inc})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s USD, balance delta %s credits\n",
				domain.ProrationKind(amount), amount.Decimal().StringFixed(2), -credits)
			return nil
		},
	}

	cmd.Flags().StringVar(&oldPrice, "old", "", "Current plan price per cycle in USD")
	cmd.Flags().StringVar(&newPrice, "new", "", "New plan price per cycle in USD")
	cmd.Flags().IntVar(&days, "days", 0, "Days remaining in the cycle")
	cmd.Flags().IntVar(&cycle, "cycle", 30, "Cycle length in days")
	cmd.Flags().StringVar(&increment, "increment", "0.01", "Rounding increment")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	_ = cmd.MarkFlagRequired("days")

	return cmd
}
