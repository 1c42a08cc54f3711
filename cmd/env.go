// Copyright © 2018 ThreeComma.io <hello@threecomma.io>

package cmd

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/threecommaio/wpdeploy/pkg/wpdeploy"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envShowCmd)
	envCmd.AddCommand(envPingCmd)
}

// envCmd represents the env command
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect configured environments",
}

// envListCmd represents the env list command
var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments and their hostnames",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		config := d.Config()
		for _, name := range config.Names() {
			env := config.Environments[name]
			marker := " "
			if name == config.DefaultEnvironment {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %s\n", marker, name, strings.Join(env.Hosts(), ", "))
		}
		return nil
	},
}

// envShowCmd represents the env show command
var envShowCmd = &cobra.Command{
	Use:   "show [environment]",
	Short: "Show an environment's settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		env, err := d.Config().Environment(arg(args, 0))
		if err != nil {
			return err
		}
		out, err := wpdeploy.EnvironmentYAML(env)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// envPingCmd represents the env ping command
var envPingCmd = &cobra.Command{
	Use:   "ping [environment]",
	Short: "Check the database connection of an environment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		if err := d.Ping(context.Background(), arg(args, 0)); err != nil {
			return err
		}
		log.Info("database is reachable")
		return nil
	},
}
