package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zhaddad/aeromind/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize aeromind configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure aeromind and generates a .aeromind.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
