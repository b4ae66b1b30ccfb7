package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newBalanceCommand(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a user's credit balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				userID = opts.user
			}
			balance, err := opts.client().Balance(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s credits (%d entries)\n", balance.UserID, balance.Credits, balance.Entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (defaults to the principal)")

	return cmd
}

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	var (
		userID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List a user's recent ledger entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				userID = opts.user
			}
			entries, err := opts.client().Ledger(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tKIND\tDELTA\tINCREMENT\tMODEL\tREFERENCE")
			for _, e := range entries {
				model := ""
				if e.Model != "" {
					model = e.Vendor + "/" + e.Model
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.Kind, e.DeltaCredits, e.Increment, model, e.Reference)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (defaults to the principal)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")

	return cmd
}
