package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arguslabs/argus/internal/ui"
	"github.com/arguslabs/argus/pkg/service/lambda"
)

var fnCmd = &cobra.Command{
	Use:   "fn",
	Short: "Inspect Lambda functions",
}

var fnLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List Lambda functions",
	RunE:  runFnList,
}

var fnMax int

func init() {
	rootCmd.AddCommand(fnCmd)
	fnCmd.AddCommand(fnLsCmd)

	fnLsCmd.Flags().IntVar(&fnMax, "max", 0, "Maximum number of functions to list (0 = all)")
}

func runFnList(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	functions, err := lambda.NewReader(client.Lambda()).ListFunctions(cmd.Context(), fnMax)
	if err != nil {
		return fmt.Errorf("failed to list functions: %w", err)
	}
	if len(functions) == 0 {
		fmt.Println("No functions found")
		return nil
	}

	t := ui.NewTable(
		ui.Column{Title: "Name", Width: 36, Style: ui.NameStyle},
		ui.Column{Title: "Runtime", Width: 14, Style: ui.ValueStyle},
		ui.Column{Title: "Memory", Width: 8, Style: ui.ValueStyle},
		ui.Column{Title: "Timeout", Width: 8, Style: ui.ValueStyle},
		ui.Column{Title: "Modified", Width: 24, Style: ui.DimStyle},
	)
	rows := make([][]string, 0, len(functions))
	for _, fn := range functions {
		rows = append(rows, []string{
			fn.Name,
			fn.Runtime,
			fmt.Sprintf("%d MB", fn.MemoryMB),
			fmt.Sprintf("%d s", fn.TimeoutSec),
			fn.LastModified,
		})
	}
	t.Print(rows)
	fmt.Printf("  %d functions\n", len(functions))

	return nil
}
