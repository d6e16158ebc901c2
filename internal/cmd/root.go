package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jauhararifin/tetris-engine/internal/config"
)

var emph = color.New(color.FgBlue, color.Bold).SprintFunc()

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "tetris",
	Version: version,
	Short:   "Tetris in the terminal, alone or against a friend",
	Long: `Tetris in the terminal.

Three modes are available: normal, speed-curve (gravity speeds up every ten
lines) and obstacle (a pyramid of blocks and bomb power-ups). Two players can
face each other through "tetris serve" and "tetris join".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded

		level, err := logrus.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is "+defaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "overrides log.level from the config")
}

func defaultConfigPath() string {
	return filepath.Join(config.Dir(), config.FileName)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// silence is called by every RunE once its arguments have been accepted, so
// runtime errors are not followed by the usage text.
func silence(cmd *cobra.Command) {
	cmd.SilenceUsage = true
}

func printf(cmd *cobra.Command, format string, a ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
