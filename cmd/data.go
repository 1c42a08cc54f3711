// Copyright © 2018 ThreeComma.io <hello@threecomma.io>

package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/threecommaio/wpdeploy/pkg/wpdeploy"
)

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rewriteCmd)

	for _, c := range []*cobra.Command{loadCmd, migrateCmd} {
		c.Flags().BoolP("force", "f", false, "allow overwriting a protected environment")
		c.Flags().Bool("keep", false, "keep the rewritten dump after loading")
	}
}

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [environment]",
	Short: "Dump the database of an environment into the dump directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		path, err := d.Dump(context.Background(), arg(args, 0))
		if err != nil {
			return err
		}
		log.Infof("successfully created dump: %s", path)
		return nil
	},
}

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load <source> [destination]",
	Short: "Load the dump of source into destination, rewriting hostnames",
	Long: `Load the dump of the source environment into the destination environment
(the default environment when omitted). Hostnames of the source are replaced
by the destination server name before loading.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			force, _ = cmd.Flags().GetBool("force")
			keep, _  = cmd.Flags().GetBool("keep")
		)
		if len(args) == 0 {
			return wpdeploy.ErrMissingSource
		}
		d, err := newDeployer(wpdeploy.Options{Keep: keep})
		if err != nil {
			return err
		}
		return d.Load(context.Background(), args[0], arg(args, 1), force)
	},
}

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate <source> <destination>",
	Short: "Dump source and load it into destination",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			force, _ = cmd.Flags().GetBool("force")
			keep, _  = cmd.Flags().GetBool("keep")
		)
		d, err := newDeployer(wpdeploy.Options{Keep: keep})
		if err != nil {
			return err
		}
		return d.Migrate(context.Background(), arg(args, 0), arg(args, 1), force)
	},
}

// rewriteCmd represents the rewrite command
var rewriteCmd = &cobra.Command{
	Use:   "rewrite <source> <destination>",
	Short: "Rewrite the dump of source for destination without loading it",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		path, err := d.Rewrite(arg(args, 0), arg(args, 1))
		if err != nil {
			return err
		}
		log.Infof("successfully created rewritten dump: %s", path)
		return nil
	},
}
