// Package observability provides observability utilities
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// WriteTextfile writes every registered metric to path in the text
// exposition format for the node exporter textfile collector. An empty
// path is a no-op.
func WriteTextfile(log logrus.FieldLogger, path string) error {
	if path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}

	log.WithField("path", path).Debug("Wrote metrics textfile")

	return nil
}
