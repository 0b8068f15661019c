/*
Copyright © 2026 Khalid-Galal
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bidops-ai",
	Short: "Tender document ingestion and AI extraction pipeline",
	Long: `bidops-ai ingests tender document folders, indexes their content for
semantic search, and runs AI extraction flows over them: project summary,
requirements checklist, document classification and key-date sweeps.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}
