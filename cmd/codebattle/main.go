// Package main provides the codebattle terminal game.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/codebattle/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "codebattle",
	Short: "Turn-based battles against procedurally generated software bugs",
	Long: `codebattle pits a persistent Code Warrior against a stream of enemies.
Victories earn XP and coins; coins buy potions and permanent upgrades.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/dev.yaml", "path to configuration file")
	rootCmd.AddCommand(playCmd, shopCmd, profileCmd, migrateCmd)
}

// loadConfig reads the configuration file. The default path may be absent,
// in which case built-in defaults and CODEBATTLE_ environment overrides apply.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if _, statErr := os.Stat(configPath); errors.Is(statErr, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.LoadFromViper(config.Defaults())
	}
	return config.Config{}, fmt.Errorf("loading config: %w", err)
}
