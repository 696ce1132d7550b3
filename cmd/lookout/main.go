package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lookout",
	Short: "Lookout - authenticated gateway to server liveness",
	Long: `Lookout exposes a small JSON API over the liveness of a fleet of
monitored servers. Server state is read from Prometheus and every request
is authenticated with HTTP Basic credentials from the configuration file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Lookout version %s\nCommit: %s\nBuilt: %s\n",
			Version, Commit, BuildTime)
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Lookout version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(versionCmd)
}
