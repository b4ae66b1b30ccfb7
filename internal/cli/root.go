// Package cli implements creditctl, the operator tool for the credit meter.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server string
	user   string
	scopes string
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.server, o.user, o.scopes)
}

// NewRootCommand builds the creditctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "creditctl",
		Short: "Operate the credit meter",
		Long: `creditctl inspects balances, manages the rounding increment and pricing,
and previews proration against a running credit meter.

Offline commands (pricing check, prorate) need no server.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.server, "server", envOr("CREDITMETER_URL", "http://localhost:8080"), "Billing API base URL")
	root.PersistentFlags().StringVar(&opts.user, "as", envOr("CREDITMETER_USER", "creditctl"), "Principal user id sent to the API")
	root.PersistentFlags().StringVar(&opts.scopes, "scopes", envOr("CREDITMETER_SCOPES", "billing:admin"), "Principal scopes sent to the API")

	root.AddCommand(newRoundingCommand(opts))
	root.AddCommand(newBalanceCommand(opts))
	root.AddCommand(newLedgerCommand(opts))
	root.AddCommand(newPricingCommand(opts))
	root.AddCommand(newProrateCommand())
	root.AddCommand(newCompleteCommand(opts))

	return root
}

// Execute runs creditctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
