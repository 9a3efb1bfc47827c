package cmd

import (
	"github.com/ethpandaops/decarb/pkg/planner"
	"github.com/ethpandaops/decarb/pkg/registry"
	"github.com/ethpandaops/decarb/pkg/report"
	"github.com/ethpandaops/decarb/pkg/workbook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and applies command-line overrides.
// The config file's logging level only applies when --log-level is unset.
func loadConfig(cmd *cobra.Command) (*planner.Config, error) {
	cfg, err := planner.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("mode") {
		cfg.Mode, _ = flags.GetString("mode")
	}

	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		cfg.Report.Format = report.Format(format)
	}

	if flags.Changed("output") {
		cfg.Report.Output, _ = flags.GetString("output")
	}

	if flags.Changed("metrics-file") {
		cfg.MetricsFile, _ = flags.GetString("metrics-file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cmd.Flags().Changed("log-level") {
		if level, err := logrus.ParseLevel(cfg.Logging); err == nil {
			logger.SetLevel(level)
		}
	}

	return cfg, nil
}

// loadRegistry reads the workbook and validates it into a registry.
func loadRegistry(path string) (*registry.Registry, error) {
	wb, err := workbook.Load(path)
	if err != nil {
		return nil, err
	}

	return registry.FromWorkbook(wb)
}
