package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

func newPricingCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Validate and reload price sheets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a pricing file offline",
		Long: `Parse a pricing file and apply it to an empty pricing table, reporting
every price and the margin that would apply to it.

Examples:
  creditctl pricing check prices.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := pricing.NewFileSource(args[0]).Load(cmd.Context())
			if err != nil {
				return err
			}
			table := domain.NewPricingTable()
			if err := table.Swap(sheet); err != nil {
				return err
			}

			prices := append([]domain.UnitPrice(nil), sheet.Prices...)
			sort.Slice(prices, func(i, j int) bool {
				if prices[i].Vendor != prices[j].Vendor {
					return prices[i].Vendor < prices[j].Vendor
				}
				return prices[i].Model < prices[j].Model
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version %s: %d prices OK\n", table.Version(), table.Size())
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VENDOR\tMODEL\tINPUT/M\tOUTPUT/M\tMARGIN")
			for _, p := range prices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.Vendor, p.Model, p.InputPerMillion, p.OutputPerMillion, describeMargin(table.MarginFor(p.Vendor, p.Model)))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Reload the server's pricing table from its source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := opts.client().ReloadPricing(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pricing version %s active\n", version)
			return nil
		},
	})

	return cmd
}

func describeMargin(policy domain.MarginPolicy) string {
	switch p := policy.(type) {
	case domain.FixedPercentage:
		return "fixed " + p.Rate.String()
	case domain.Tiered:
		return fmt.Sprintf("tiered (%d brackets)", len(p.Brackets))
	case domain.Dynamic:
		return "dynamic, fallback " + p.Fallback.Rate.String()
	default:
		return "none"
	}
}
