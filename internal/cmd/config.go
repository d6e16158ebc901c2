package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jauhararifin/tetris-engine/internal/config"
)

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage your configuration",
	// Skips loading the config, which may be the very file being replaced.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file filled with the defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		silence(cmd)
		path := configPath
		if path == "" {
			path = defaultConfigPath()
		}
		if err := config.Write(path, config.Defaults(), configForce); err != nil {
			return err
		}
		printf(cmd, "Config written to %s\n", emph(path))
		return nil
	},
}
