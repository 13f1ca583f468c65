package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"hearth/internal/allocation"
	"hearth/internal/logger"
	"hearth/internal/server"
	"hearth/internal/services"
	"hearth/internal/uuid"
)

var (
	flagHousehold string
	flagTimeout   time.Duration
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Inspect and roll over household budgets",
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a household's budget analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBudgets(cmd, func(ctx context.Context, budgets services.BudgetServicer, householdID string) error {
			budgetID, err := budgets.GetActiveBudgetID(ctx, householdID)
			if err != nil {
				return err
			}
			result, err := budgets.Analyze(ctx, budgetID)
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), result)
			return nil
		})
	},
}

var budgetResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero a household's spend totals for a new period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBudgets(cmd, func(ctx context.Context, budgets services.BudgetServicer, householdID string) error {
			budget, err := budgets.ResetPeriod(ctx, householdID)
			if err != nil {
				return err
			}
			logger.Get().Infow("Budget period reset", "household_id", householdID, "budget_id", budget.ID, "epoch", budget.Epoch)
			fmt.Fprintf(cmd.OutOrStdout(), "budget %s reset (cycle %d)\n", budget.ID, budget.Epoch)
			return nil
		})
	},
}

// withBudgets runs fn against a budget service of its own. It shares no
// household locks with a running API process, so a concurrent reset is
// serialized only by the budget's version column, and no events are
// published from the CLI.
func withBudgets(cmd *cobra.Command, fn func(context.Context, services.BudgetServicer, string) error) error {
	householdID, err := uuid.Parse(flagHousehold)
	if err != nil {
		return fmt.Errorf("invalid --household %q", flagHousehold)
	}

	_, manager, err := openDatabase()
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	svc := server.NewServices(manager.DB(), server.ServiceDeps{BucketTable: allocation.LegacyBucketTable})
	return fn(ctx, svc.Budgets, householdID)
}

func printAnalysis(w io.Writer, r *allocation.Result) {
	fmt.Fprintf(w, "budget %s  %s to %s\n", r.BudgetID,
		r.Period.Start.Format(time.DateOnly), r.Period.End.Format(time.DateOnly))
	fmt.Fprintf(w, "%-8s %5s %12s %12s %12s %7s\n", "bucket", "pct", "limit", "spent", "remaining", "used%")
	for _, b := range r.Buckets {
		flag := ""
		if b.Exceeded {
			flag = "  over"
		}
		fmt.Fprintf(w, "%-8s %4d%% %12s %12s %12s %7s%s\n", b.Bucket, b.Percentage,
			b.Limit.StringFixed(2), b.Spent.StringFixed(2), b.Remaining.StringFixed(2), b.UtilizationPct.StringFixed(2), flag)
	}
	fmt.Fprintf(w, "%-8s %5s %12s %12s %12s %7s\n", "total", "", r.TotalLimit.StringFixed(2),
		r.TotalSpent.StringFixed(2), r.Remaining.StringFixed(2), r.UtilizationPct.StringFixed(2))
	fmt.Fprintf(w, "%d day(s) remaining\n", r.Period.DaysRemaining)
}

func init() {
	budgetCmd.PersistentFlags().StringVar(&flagHousehold, "household", "", "Household ID")
	budgetCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "Time limit for the operation")
	_ = budgetCmd.MarkPersistentFlagRequired("household")

	budgetCmd.AddCommand(budgetShowCmd, budgetResetCmd)
	rootCmd.AddCommand(budgetCmd)
}
