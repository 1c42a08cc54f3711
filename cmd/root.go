// Copyright © 2018 ThreeComma.io <hello@threecomma.io>

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/threecommaio/wpdeploy/pkg/wpdeploy"
)

var (
	cfgFile  string
	debug    bool
	progress bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "wpdeploy",
	Short:         "WordPress provisioning and environment sync for subversion working copies",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./"+wpdeploy.ConfigName+" or ~/."+wpdeploy.ConfigName+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&progress, "progress", false, "show a progress bar while rewriting dumps")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	wpdeploy.ConfigureLogging(debug)
}

// newDeployer loads the configuration and wires a deployer to the real
// filesystem and process runner.
func newDeployer(opts wpdeploy.Options) (*wpdeploy.Deployer, error) {
	fs := afero.NewOsFs()

	path, err := wpdeploy.FindConfig(fs, cfgFile)
	if err != nil {
		return nil, err
	}
	config, err := wpdeploy.LoadConfig(fs, path)
	if err != nil {
		return nil, err
	}

	opts.Progress = progress
	return wpdeploy.NewDeployer(config, fs, wpdeploy.NewExecRunner(), opts), nil
}

// arg returns the positional argument at idx, or "" when absent
func arg(args []string, idx int) string {
	if idx < len(args) {
		return args[idx]
	}
	return ""
}
