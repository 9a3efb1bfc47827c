package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/ethpandaops/decarb/pkg/planner"
	"github.com/spf13/cobra"
)

// validateCmd checks a workbook without solving it
//
//nolint:gochecknoglobals // Cobra commands are typically global
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a planning workbook",
	Long:  `Load the workbook, build every period sub-model and link them without solving, then print program statistics.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&inputFile, "input", "i", "workbook.yaml", "planning workbook")
	validateCmd.Flags().String("mode", "", "override the workbook regime (cost, emission)")
}

func runValidate(cmd *cobra.Command, _ []string) error {
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

	lp, err := svc.Link(reg)
	if err != nil {
		return err
	}

	stats := lp.Stats()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MODE\tPERIODS\tPLANTS\tVARIABLES\tBINARIES\tCONSTRAINTS\tLINKS")
	_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
		lp.Mode(), stats.Periods, stats.Plants, stats.Vars, stats.Binaries, stats.Constraints, stats.Links)

	return w.Flush()
}
