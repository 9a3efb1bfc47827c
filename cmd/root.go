// Package cmd contains the CLI commands for decarb
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethpandaops/decarb/pkg/planner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitError  = 1
	exitNoPlan = 2
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile string
	logger  *logrus.Logger
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "decarb",
	Short: "Multi-period decarbonisation planner",
	Long: `decarb plans how a region meets energy demand across several periods
while honoring a carbon-emission trajectory. It chooses plant dispatch, CCS
retrofits, alternative fuel blending and negative-emission deployment by
solving one linked mixed-integer linear program.

Exit status is 0 for an optimal plan, 2 when the program is infeasible or
unbounded, and 1 for any other failure.`,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, err)

	if errors.Is(err, planner.ErrNoPlan) {
		os.Exit(exitNoPlan)
	}

	os.Exit(exitError)
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", planner.DefaultConfigPath, "config file, optional")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")

	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)
}

func initLogging() {
	logLevel, err := rootCmd.PersistentFlags().GetString("log-level")
	if err != nil {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, defaulting to info")

		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
}
