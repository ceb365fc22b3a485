package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect the per-operation price table",
}

var pricingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every priced operation",
	RunE:  runPricingList,
}

func init() {
	rootCmd.AddCommand(pricingCmd)
	pricingCmd.AddCommand(pricingListCmd)
}

func runPricingList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	est, err := initEstimator(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "OPERATION\tMETHOD\tCOST\n")
	for _, ep := range est.Operations() {
		fmt.Fprintf(w, "%s\t%s\t$%.4f\n", ep.ID, ep.Method, ep.Cost)
	}
	w.Flush()

	fmt.Fprintf(out, "\nUnlisted operations: $%.4f\n", est.DefaultCost())
	if cfg.Pricing.File != "" {
		fmt.Fprintf(out, "Overrides loaded from %s\n", cfg.Pricing.File)
	}
	return nil
}
