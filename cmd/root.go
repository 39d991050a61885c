package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "aeromind",
	Short: "AI reasoning assistant for airport capacity planning",
	Long: `Aeromind is a conversational assistant for airport capacity planning.
It normalizes questions about stands, flights, maintenance and capacity,
plans multi-step reasoning over live airport data and an ingested
knowledge base, and fact-checks every answer before returning it.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".aeromind.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
