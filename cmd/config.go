// Copyright © 2018 ThreeComma.io <hello@threecomma.io>

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/threecommaio/wpdeploy/pkg/wpdeploy"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("output", "o", "wp-config.php", "file to write")
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate runtime configuration files",
}

// generateCmd represents the config generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a wp-config.php covering every environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		return d.GenerateWPConfig(output)
	},
}
