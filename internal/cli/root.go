// Package cli implements the conveyor CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "conveyor",
	Short: "A single-pipeline CI/CD runner",
	Long: "Conveyor builds, tests, containerizes and deploys one application\n" +
		"through a declarative stage pipeline, triggered manually or by webhook.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "conveyor %s (commit: %s)\n", buildVersion, buildCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ./conveyor.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	buildVersion = "dev"
	buildCommit  = "none"
)

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	buildVersion = version
	buildCommit = commit
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("conveyor %s (commit: %s)\n", version, commit))
}

// Execute runs the root command. The process exit status is non-zero
// only when a command fails; an unstable run still exits zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
