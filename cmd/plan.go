package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/decarb/pkg/observability"
	"github.com/ethpandaops/decarb/pkg/planner"
	"github.com/ethpandaops/decarb/pkg/report"
	"github.com/ethpandaops/decarb/pkg/results"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	inputFile string
)

// planCmd solves a workbook and prints the plan
//
//nolint:gochecknoglobals // Cobra commands are typically global
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Solve a planning workbook",
	Long: `Build one sub-model per period, link them with CCS monotonicity
constraints, solve the linked program and print one table per period.
Infeasible or unbounded programs are reported with a per-period diagnosis
and exit with an error.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&inputFile, "input", "i", "workbook.yaml", "planning workbook")
	planCmd.Flags().String("mode", "", "override the workbook regime (cost, emission)")
	planCmd.Flags().String("format", "table", "output format (table, csv, yaml)")
	planCmd.Flags().StringP("output", "o", "", "output file (default is stdout)")
	planCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile after the run")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(inputFile)
	if err != nil {
		return err
	}

	svc, err := planner.NewService(logger, cfg, nil)
	if err != nil {
		return err
	}

	writer, err := report.NewWriter(&cfg.Report)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan, planErr := svc.Plan(ctx, reg)

	if err := observability.WriteTextfile(logger, cfg.MetricsFile); err != nil {
		logger.WithError(err).Error("Failed to write metrics")
	}

	if planErr != nil {
		return planErr
	}

	if err := writePlan(cmd.OutOrStdout(), cfg.Report.Output, writer, plan); err != nil {
		return err
	}

	if !plan.Optimal() {
		return fmt.Errorf("%w: %s (%s mode)", planner.ErrNoPlan, plan.Status, plan.Mode)
	}

	return nil
}

func writePlan(stdout io.Writer, path string, writer *report.Writer, plan *results.Plan) error {
	if path == "" {
		return writer.Write(stdout, plan)
	}

	f, err := os.Create(path) //nolint:gosec // User-provided output path
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", path, err)
	}

	if err := writer.Write(f, plan); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}
