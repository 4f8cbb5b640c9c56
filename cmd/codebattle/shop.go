package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/codebattle/internal/game/progression"
)

var shopCmd = &cobra.Command{
	Use:       "shop <potion|attack|defense>",
	Short:     "Spend coins between battles",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"potion", "attack", "defense"},
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := progression.ParseItem(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, cleanup, err := initializeApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		player, _, err := a.Profiles.LoadPlayer(cmd.Context())
		if err != nil {
			return err
		}
		a.Controller.AttachPlayer(player)
		ok := a.Controller.Buy(item)
		a.Controller.Wait()

		out := cmd.OutOrStdout()
		p := a.Controller.State().Player.Progress
		if !ok {
			fmt.Fprintf(out, "Cannot afford %s: costs %d, you have %d coins.\n", item, item.Cost(), p.Coins)
			return nil
		}
		fmt.Fprintf(out, "Purchased %s. %d coins left, %d potions.\n", item, p.Coins, p.Potions)
		return nil
	},
}
