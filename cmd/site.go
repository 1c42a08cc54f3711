// Copyright © 2018 ThreeComma.io <hello@threecomma.io>

package cmd

import (
	"context"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/threecommaio/wpdeploy/pkg/wpdeploy"
)

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(updateCmd)

	initCmd.Flags().StringP("wordpress", "w", "", "WordPress version to pin (default from config, else trunk)")
	initCmd.Flags().StringSliceP("plugin", "p", []string{}, "plugins to pin as name[@version]")
	updateCmd.Flags().StringSliceP("plugin", "p", []string{}, "plugins to pin as name[@version]")
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [working-copy]",
	Short: "Scaffold a new site in a subversion working copy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			version, _ = cmd.Flags().GetString("wordpress")
			plugins, _ = cmd.Flags().GetStringSlice("plugin")
			dir        = arg(args, 0)
		)
		if dir == "" {
			dir = "."
		}

		if cfgFile == "" {
			cfgFile = filepath.Join(dir, wpdeploy.ConfigName)
			created, err := wpdeploy.WriteSampleConfig(afero.NewOsFs(), cfgFile)
			if err != nil {
				return err
			}
			if created {
				log.Infof("wrote sample configuration to %s", cfgFile)
			}
		}

		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		if err := d.Init(context.Background(), dir, wpdeploy.InitOptions{WordPressVersion: version, Plugins: plugins}); err != nil {
			return err
		}
		log.Infof("site scaffolded in %s", dir)
		return nil
	},
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update [working-copy]",
	Short: "Re-pin WordPress core and plugins and update the working copy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plugins, _ := cmd.Flags().GetStringSlice("plugin")
		dir := arg(args, 0)
		if dir == "" {
			dir = "."
		}

		d, err := newDeployer(wpdeploy.Options{})
		if err != nil {
			return err
		}
		return d.UpdateExternals(context.Background(), dir, plugins)
	},
}
