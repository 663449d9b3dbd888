package main

import (
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "docsearch - rule-based document classifier",
	Long: `docsearch classifies documents with rules written in a small pattern language.
A rule combines regular expressions with all/any/sequence blocks and scores
how often its structure occurs in a document's lines.

Documents can come from files, directories, office files, PDFs and archives.
Scores are stored in SQLite or PostgreSQL for reporting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./docsearch.yaml or $XDG_CONFIG_HOME/docsearch/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
