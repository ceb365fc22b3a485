package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/ogulcanaydogan/xcli/internal/server"
	"github.com/ogulcanaydogan/xcli/pkg/tracker"
	"github.com/ogulcanaydogan/xcli/pkg/xapi"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show estimated spend from the local usage ledger",
	RunE:  runUsage,
}

var usageAPICmd = &cobra.Command{
	Use:   "api",
	Short: "Show post consumption reported by the X API",
	RunE:  runUsageAPI,
}

var usageServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the usage ledger as a local JSON API",
	RunE:  runUsageServe,
}

var usageClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every usage record",
	RunE:  runUsageClear,
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usageAPICmd, usageServeCmd, usageClearCmd)

	usageCmd.Flags().Duration("since", 24*time.Hour, "Window for the per-operation breakdown")
	usageCmd.Flags().Bool("detailed", false, "Show individual records in the window")
	usageAPICmd.Flags().Int("days", 7, "Days of history (1-90)")
	usageServeCmd.Flags().String("listen", "", "Listen address (default: server.listen)")
	usageClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func runUsage(cmd *cobra.Command, _ []string) error {
	since, _ := cmd.Flags().GetDuration("since")
	detailed, _ := cmd.Flags().GetBool("detailed")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.store.LoadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("load usage: %w", err)
	}

	agg := tracker.NewAggregator(nil)
	summary := agg.Summary(records)
	out := cmd.OutOrStdout()
	if jsonOutput {
		return json.NewEncoder(out).Encode(summary)
	}

	fmt.Fprintf(out, "=== X API Spend (estimated) ===\n")
	fmt.Fprintf(out, "Today:    $%.4f\n", summary.Today)
	for _, w := range summary.Windows {
		fmt.Fprintf(out, "Last %-4s $%.4f\n", w.Window.Label+":", w.Total)
	}
	fmt.Fprintf(out, "Records:  %d\n", summary.RecordCount)

	totals := agg.ByEndpoint(records, since)
	if len(totals) > 0 {
		ops := make([]string, 0, len(totals))
		for op := range totals {
			ops = append(ops, op)
		}
		sort.Slice(ops, func(i, j int) bool {
			if c := totals[ops[i]].Cmp(totals[ops[j]]); c != 0 {
				return c > 0
			}
			return ops[i] < ops[j]
		})

		fmt.Fprintf(out, "\nBy Operation (last %s):\n", since)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  OPERATION\tCOST\n")
		for _, op := range ops {
			fmt.Fprintf(w, "  %s\t$%s\n", op, totals[op].StringFixed(4))
		}
		w.Flush()
	}

	if detailed {
		cutoff := agg.Now().Add(-since)
		fmt.Fprintf(out, "\nDetailed Records:\n")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  TIMESTAMP\tMETHOD\tOPERATION\tCOST\n")
		for _, r := range records {
			if r.Timestamp.Before(cutoff) {
				continue
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t$%.4f\n",
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				r.Method, r.Endpoint, r.EstimatedCost,
			)
		}
		w.Flush()
	}

	return nil
}

func runUsageAPI(cmd *cobra.Command, _ []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if days < 1 || days > 90 {
		return fmt.Errorf("--days must be between 1 and 90, got %d", days)
	}
	req := xapi.NewRequest("usage", "get").
		Set("days", fmt.Sprint(days)).
		Set("usage.fields", "cap_reset_day,project_cap,project_usage,daily_project_usage")
	return call(cmd, req)
}

func runUsageServe(cmd *cobra.Command, _ []string) error {
	listen, _ := cmd.Flags().GetString("listen")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if listen == "" {
		listen = a.cfg.Server.Listen
	}
	srv := server.NewServer(a.store, tracker.NewAggregator(nil), a.enforcer, a.logger)
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving usage API on http://%s (Ctrl-C to stop)\n", listen)
	return srv.ListenAndServe(cmd.Context(), listen)
}

func runUsageClear(cmd *cobra.Command, _ []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to clear usage without --yes in a non-interactive session")
		}
		p := tracker.NewTerminalPrompter(os.Stdin, cmd.ErrOrStderr())
		ok, err := p.Confirm(cmd.Context(), "Delete every usage record?")
		if err != nil {
			return err
		}
		if !ok {
			return tracker.ErrUserCancelled
		}
	}

	if err := a.store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear usage: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Usage ledger cleared.")
	return nil
}
