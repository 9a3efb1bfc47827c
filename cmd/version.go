package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release and GitCommit are stamped with -ldflags "-X" by release builds.
//
//nolint:gochecknoglobals // Build-time variables for version info
var (
	Release   = "dev"
	GitCommit = ""
)

// buildInfo describes the running binary.
type buildInfo struct {
	Release   string
	Commit    string
	BuiltAt   string
	GoVersion string
	Platform  string
}

// readBuildInfo combines the ldflags stamps with the VCS settings the Go
// toolchain embeds, so `go install` builds still report their revision.
func readBuildInfo() buildInfo {
	info := buildInfo{
		Release:   Release,
		Commit:    GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info.withDefaults()
	}

	if info.Release == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Release = bi.Main.Version
	}

	dirty := false

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			info.BuiltAt = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if dirty && GitCommit == "" && info.Commit != "" {
		info.Commit += "-dirty"
	}

	return info.withDefaults()
}

func (b buildInfo) withDefaults() buildInfo {
	if b.Commit == "" {
		b.Commit = "unknown"
	}

	if b.BuiltAt == "" {
		b.BuiltAt = "unknown"
	}

	return b
}

func (b buildInfo) write(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, b.Release)

		return err
	}

	_, err := fmt.Fprintf(w, "decarb %s\n  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s\n",
		b.Release, b.Commit, b.BuiltAt, b.GoVersion, b.Platform)

	return err
}

//nolint:gochecknoglobals // Cobra commands are typically global
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print decarb build information",
	Long:  `Print the release, VCS revision, build time, Go toolchain and platform of this decarb binary.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		short, err := cmd.Flags().GetBool("short")
		if err != nil {
			return err
		}

		return readBuildInfo().write(cmd.OutOrStdout(), short)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "print the release only")
}
