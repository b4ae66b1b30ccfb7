package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidbz/creditmeter/internal/domain"
)

func newRoundingCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounding",
		Short: "Show or change the credit rounding increment",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the active rounding policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := opts.client().Rounding(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "increment: %s\neffective since: %s\n",
				policy.Increment, policy.EffectiveSince.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <increment>",
		Short: "Change the rounding increment",
		Long: `Change the rounding increment applied to new ledger entries.

Allowed values are 0.01, 0.1 and 1.0. Existing entries keep the increment
they were written with.

Examples:
  creditctl rounding set 0.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			increment, err := domain.ParseIncrement(args[0])
			if err != nil {
				return err
			}
			policy, err := opts.client().SetRounding(cmd.Context(), increment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "increment set to %s\n", policy.Increment)
			return nil
		},
	})

	return cmd
}
