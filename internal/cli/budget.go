package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage the daily spending budget",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the daily limit and what happens when a call would exceed it",
	Long: `Set the daily limit and the action taken when a call would exceed it:

  block    refuse the call
  warn     make the call and print a warning (default)
  confirm  ask before making the call; declined when not on a terminal`,
	RunE: runBudgetSet,
}

var budgetShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"status"},
	Short:   "Show the budget and today's spend",
	RunE:    runBudgetShow,
}

var budgetResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the budget",
	RunE:  runBudgetReset,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetSetCmd, budgetShowCmd, budgetResetCmd)

	budgetSetCmd.Flags().Float64P("daily", "d", 0, "Daily limit in USD")
	budgetSetCmd.Flags().StringP("action", "a", string(model.ActionWarn), "Action when exceeded (block, warn, confirm)")
	_ = budgetSetCmd.MarkFlagRequired("daily")
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	daily, _ := cmd.Flags().GetFloat64("daily")
	actionFlag, _ := cmd.Flags().GetString("action")

	action, err := model.ParseAction(actionFlag)
	if err != nil {
		return err
	}
	policy := model.BudgetPolicy{DailyLimit: &daily, Action: action}
	if err := policy.Validate(); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SetPolicy(cmd.Context(), policy); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Budget set:\n")
	fmt.Fprintf(out, "  Daily limit:  $%.2f\n", daily)
	fmt.Fprintf(out, "  Action:       %s\n", action)
	return nil
}

func runBudgetShow(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.enforcer.Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return json.NewEncoder(out).Encode(map[string]any{
			"daily":       st.Policy.DailyLimit,
			"action":      st.Policy.Action,
			"today_spend": st.TodaySpend.InexactFloat64(),
		})
	}

	if !st.Policy.HasLimit() {
		fmt.Fprintf(out, "No budget configured. Use 'xcli budget set --daily <usd>' to create one.\n")
		fmt.Fprintf(out, "Spent today:  $%s\n", st.TodaySpend.StringFixed(4))
		return nil
	}

	limit := *st.Policy.DailyLimit
	pct := st.TodaySpend.InexactFloat64() / limit * 100
	status := ""
	switch {
	case pct >= 100:
		status = " [EXCEEDED]"
	case pct >= 80:
		status = " [WARNING]"
	}

	fmt.Fprintf(out, "Daily limit:  $%.2f\n", limit)
	fmt.Fprintf(out, "Action:       %s\n", st.Policy.Action)
	fmt.Fprintf(out, "Spent today:  $%s (%.1f%%)%s\n", st.TodaySpend.StringFixed(4), pct, status)
	fmt.Fprintf(out, "Remaining:    $%s\n", st.Remaining.StringFixed(4))
	return nil
}

func runBudgetReset(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.ClearPolicy(cmd.Context()); err != nil {
		return fmt.Errorf("reset budget: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Budget removed.")
	return nil
}
