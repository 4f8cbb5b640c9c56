package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/codebattle/internal/storage/postgres"
)

var (
	migrateSource string
	migrateSteps  int
)

var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down>",
	Short:     "Apply or roll back the player profile schema",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res, err := postgres.Migrate(migrateSource, cfg.Database.DSN(), args[0], migrateSteps)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !res.Changed {
			fmt.Fprintf(out, "no changes (version=%d dirty=%v) [%s]\n", res.Version, res.Dirty, time.Since(start))
			return nil
		}
		fmt.Fprintf(out, "migrated %s to version=%d dirty=%v [%s]\n", args[0], res.Version, res.Dirty, time.Since(start))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSource, "source", "file://migrations", "migration source URL")
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of steps (0 = all)")
}
