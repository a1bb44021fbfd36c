package cmd

import (
	"fmt"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/spf13/cobra"
)

var initConfigCmd = &cobra.Command{
	Use: "init-config",
	Short: "Write a default config file",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := depot.CreateConfigFile(configPath)
		if err != nil { return err }
		fmt.Printf("Default config written to %s.\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}
