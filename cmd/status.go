package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arguslabs/argus/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current profile, region, and authentication status",
	Long: `Display the effective profile and region and verify credentials by
calling STS GetCallerIdentity.

Examples:
  argus status
  argus status --profile staging`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("Current Status")
	fmt.Println(ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Println()

	if profile != "" {
		fmt.Printf("Profile:  %s\n", ui.NameStyle.Render(profile))
	} else {
		fmt.Println("Profile:  " + ui.MutedStyle.Render("(default)"))
	}

	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}
	if client.Region() != "" {
		fmt.Printf("Region:   %s\n", client.Region())
	}
	fmt.Println()

	fmt.Print("Auth:     ")
	identity, err := client.Identity(cmd.Context())
	if err != nil {
		fmt.Println(ui.DimStyle.Render("✗ Not authenticated"))
		fmt.Printf("          %s\n", ui.MutedStyle.Render(err.Error()))
		fmt.Println()
		fmt.Println("To authenticate:")
		fmt.Printf("  aws sso login --profile %s\n", profile)
		return nil
	}

	fmt.Println(ui.OKStyle.Render("✓ Authenticated"))
	fmt.Printf("Account:  %s\n", identity.Account)
	fmt.Printf("User:     %s\n", identity.UserID)
	if identity.Arn != "" {
		fmt.Printf("ARN:      %s\n", ui.MutedStyle.Render(identity.Arn))
	}

	return nil
}
