package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Fight encounters in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, cleanup, err := initializeApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		a.Logger.Info("starting codebattle",
			zap.String("storage", cfg.Storage.Backend),
			zap.String("definitions", cfg.Provider.Definitions),
			zap.String("decisions", cfg.Provider.Decisions),
		)
		return app.NewGame(a, os.Stdin, cmd.OutOrStdout()).Run(ctx)
	},
}
