package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arguslabs/argus/internal/config"
	"github.com/arguslabs/argus/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage saved defaults",
	Long: `Persist default profile and region to ~/.argus/config.yaml so they
don't have to be passed on every invocation.

Examples:
  argus config set-profile staging
  argus config set-region eu-west-1
  argus config show`,
}

var configSetProfileCmd = &cobra.Command{
	Use:   "set-profile <name>",
	Short: "Save the default AWS profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetProfile(args[0]); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		fmt.Printf("%s profile %s\n", ui.OKStyle.Render("✓ saved"), args[0])
		return nil
	},
}

var configSetRegionCmd = &cobra.Command{
	Use:   "set-region <region>",
	Short: "Save the default AWS region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetRegion(args[0]); err != nil {
			return fmt.Errorf("failed to save region: %w", err)
		}
		fmt.Printf("%s region %s\n", ui.OKStyle.Render("✓ saved"), args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		fmt.Printf("Config:   %s\n", ui.MutedStyle.Render(config.GetConfigPath()))
		fmt.Printf("Profile:  %s\n", orUnset(cfg.AWSProfile))
		fmt.Printf("Region:   %s\n", orUnset(cfg.AWSRegion))
		fmt.Printf("Bucket:   %s\n", orUnset(cfg.DefaultBucket))
		fmt.Printf("Level:    %s\n", orUnset(cfg.LogLevel))
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return ui.MutedStyle.Render("(not set)")
	}
	return s
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetProfileCmd)
	configCmd.AddCommand(configSetRegionCmd)
	configCmd.AddCommand(configShowCmd)
}
