package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arguslabs/argus/internal/ui"
	"github.com/arguslabs/argus/pkg/service/sqs"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect SQS queues",
}

var queueLsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List queues with their message counts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQueueList,
}

var queuePeekCmd = &cobra.Command{
	Use:   "peek <queue-name>",
	Short: "Receive messages without removing them",
	Long: `Receive up to --max messages from a queue. The messages stay on the
queue and become visible again after the visibility timeout.

Examples:
  argus queue peek my-queue
  argus queue peek my-queue --max 10`,
	Args: cobra.ExactArgs(1),
	RunE: runQueuePeek,
}

var queuePeekMax int32

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueLsCmd)
	queueCmd.AddCommand(queuePeekCmd)

	queuePeekCmd.Flags().Int32Var(&queuePeekMax, "max", 5, "Maximum number of messages to receive")
}

func runQueueList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}

	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}
	reader := sqs.NewReader(client.SQS())

	urls, err := reader.ListQueues(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("failed to list queues: %w", err)
	}
	if len(urls) == 0 {
		fmt.Println("No queues found")
		return nil
	}

	t := ui.NewTable(
		ui.Column{Title: "Queue URL", Width: 64, Style: ui.NameStyle},
		ui.Column{Title: "Visible", Width: 8, Style: ui.ValueStyle},
		ui.Column{Title: "In-flight", Width: 9, Style: ui.ValueStyle},
		ui.Column{Title: "Delayed", Width: 8, Style: ui.DimStyle},
	)
	rows := make([][]string, 0, len(urls))
	for _, url := range urls {
		counts, err := reader.MessageCounts(cmd.Context(), url)
		if err != nil {
			rows = append(rows, []string{url, "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			url,
			fmt.Sprintf("%d", counts.Visible),
			fmt.Sprintf("%d", counts.Invisible),
			fmt.Sprintf("%d", counts.Delayed),
		})
	}
	t.Print(rows)
	fmt.Printf("  %d queues\n", len(urls))

	return nil
}

func runQueuePeek(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}
	reader := sqs.NewReader(client.SQS())

	url, err := reader.GetQueueURL(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve queue: %w", err)
	}

	messages, err := reader.ReceiveMessages(cmd.Context(), url, queuePeekMax, 0)
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}
	if len(messages) == 0 {
		fmt.Println("No messages available")
		return nil
	}

	for _, m := range messages {
		fmt.Printf("%s %s\n", ui.IDStyle.Render(m.MessageID), ui.MutedStyle.Render(m.Attributes["SentTimestamp"]))
		fmt.Printf("  %s\n", m.Body)
	}
	fmt.Printf("\n  %d messages (still on the queue)\n", len(messages))

	return nil
}
