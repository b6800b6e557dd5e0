package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, injected at release time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Long: `Show the tuneup version along with the commit, build date, and the
platform the binary was built for. Use --short for just the version
number, suitable for scripting.`,
	Run: runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionShort {
		cmd.Println(version)
		return
	}

	cmd.Printf("tuneup %s\n", version)
	cmd.Printf("  commit:  %s\n", commit)
	cmd.Printf("  built:   %s\n", date)
	cmd.Printf("  go:      %s\n", runtime.Version())
	cmd.Printf("  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
