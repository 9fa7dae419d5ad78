package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/pharmint/internal/format"
)

var (
	configPath    string
	logLevel      string
	markdownTable bool
)

var rootCmd = &cobra.Command{
	Use:   "pharmint",
	Short: "Pharmaceutical research query orchestrator",
	Long: `pharmint answers pharmaceutical research questions by classifying the
query, planning which analyses to run, dispatching them one at a time and
compiling the results into a report.

With no arguments, launches interactive mode where you can type queries and
read the digest of each run.

Analyses:
- Market intelligence (sales, growth, competitors)
- Trade flows (export/import volumes)
- Patent landscape and freedom to operate
- Clinical trial pipeline
- Internal documents
- Web intelligence`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return interactiveCommand(cmd, args)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: XDG user config merged with .pharmint.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&markdownTable, "markdown", false, "Render tables as Markdown")

	rootCmd.Flags().BoolVar(&interactiveWatch, "watch", false, "Reload the fixture directory when it changes")
	rootCmd.Flags().StringVar(&interactiveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func tableMode() format.Mode {
	if markdownTable {
		return format.Markdown
	}
	return format.ASCII
}
