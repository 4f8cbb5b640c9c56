package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/codebattle/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect or reset the stored player profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, cleanup, err := initializeApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		p, err := a.Profiles.Load(cmd.Context())
		if err != nil {
			return err
		}
		return printProfile(cmd.OutOrStdout(), a.Profiles.ID(), p)
	},
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the stored profile with the starting character",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, cleanup, err := initializeApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		p, err := a.Profiles.Reset(cmd.Context())
		if err != nil {
			return err
		}
		return printProfile(cmd.OutOrStdout(), a.Profiles.ID(), p)
	},
}

func init() {
	profileCmd.AddCommand(profileResetCmd)
}

func printProfile(w io.Writer, id string, p profile.Profile) error {
	fmt.Fprintf(w, "# profile %s\n", id)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("rendering profile: %w", err)
	}
	return enc.Close()
}
