package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arguslabs/argus/internal/ui"
	"github.com/arguslabs/argus/pkg/service/paramstore"
)

var paramCmd = &cobra.Command{
	Use:   "param",
	Short: "Read and write parameters and secrets",
	Long: `Read and write configuration values. Names starting with "/" go to
SSM Parameter Store; all other names go to Secrets Manager.

Examples:
  argus param ls /app
  argus param get /app/db/host
  argus param set /app/db/host db.internal
  argus param set api-token s3cr3t      # Secrets Manager`,
}

var paramLsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List parameters and secrets",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParamList,
}

var paramGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Read a parameter or secret value",
	Args:  cobra.ExactArgs(1),
	RunE:  runParamGet,
}

var paramSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Write a parameter or secret value",
	Args:  cobra.ExactArgs(2),
	RunE:  runParamSet,
}

func init() {
	rootCmd.AddCommand(paramCmd)
	paramCmd.AddCommand(paramLsCmd)
	paramCmd.AddCommand(paramGetCmd)
	paramCmd.AddCommand(paramSetCmd)
}

func runParamList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}

	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	params, err := paramstore.NewReader(client.SSM(), client.SecretsManager()).List(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("failed to list parameters: %w", err)
	}
	if len(params) == 0 {
		fmt.Println("No parameters found")
		return nil
	}

	t := ui.NewTable(
		ui.Column{Title: "Name", Width: 44, Style: ui.NameStyle},
		ui.Column{Title: "Source", Width: 15, Style: ui.ValueStyle},
		ui.Column{Title: "Type", Width: 13, Style: ui.DimStyle},
		ui.Column{Title: "Modified", Width: 19, Style: ui.DimStyle},
	)
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		modified := ""
		if p.LastModified != nil {
			modified = p.LastModified.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{p.Name, p.Source, p.Type, modified})
	}
	t.Print(rows)
	fmt.Printf("  %d parameters\n", len(params))

	return nil
}

func runParamGet(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	value, err := paramstore.NewReader(client.SSM(), client.SecretsManager()).Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", args[0], err)
	}

	fmt.Println(value.Value)
	return nil
}

func runParamSet(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	if err := paramstore.NewWriter(client.SSM(), client.SecretsManager()).Put(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	fmt.Printf("%s %s\n", ui.OKStyle.Render("✓ saved"), args[0])
	return nil
}
