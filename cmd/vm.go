package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arguslabs/argus/internal/ui"
	"github.com/arguslabs/argus/pkg/awsclient"
	"github.com/arguslabs/argus/pkg/service/ec2"
)

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Manage EC2 instances",
}

var vmLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List EC2 instances",
	Long: `List EC2 instances with optional filters.

Examples:
  argus vm ls                    # List all instances
  argus vm ls --state running    # Only running instances
  argus vm ls --name web         # Filter by Name tag pattern`,
	RunE: runVMList,
}

var vmStartCmd = &cobra.Command{
	Use:   "start [instance-id]",
	Short: "Start a stopped instance",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVMStart,
}

var vmStopCmd = &cobra.Command{
	Use:   "stop [instance-id]",
	Short: "Stop a running instance",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVMStop,
}

var (
	// vm flags
	vmState string
	vmName  string
)

func init() {
	rootCmd.AddCommand(vmCmd)
	vmCmd.AddCommand(vmLsCmd)
	vmCmd.AddCommand(vmStartCmd)
	vmCmd.AddCommand(vmStopCmd)

	vmLsCmd.Flags().StringVar(&vmState, "state", "", "Filter by instance state")
	vmLsCmd.Flags().StringVar(&vmName, "name", "", "Filter by Name tag pattern")
}

func runVMList(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	instances, err := ec2.NewReader(client.EC2()).ListInstances(cmd.Context(), ec2.InstanceFilter{
		State: vmState,
		Name:  vmName,
	})
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}
	if len(instances) == 0 {
		fmt.Println("No instances found")
		return nil
	}

	ui.PrintInstanceTable(instances)
	return nil
}

func runVMStart(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	id, err := resolveInstance(cmd, client, args, "stopped")
	if err != nil {
		return err
	}

	if err := ec2.NewWriter(client.EC2()).StartInstance(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to start instance: %w", err)
	}
	fmt.Printf("%s %s\n", ui.OKStyle.Render("✓ starting"), id)
	return nil
}

func runVMStop(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	id, err := resolveInstance(cmd, client, args, "running")
	if err != nil {
		return err
	}

	if err := ec2.NewWriter(client.EC2()).StopInstance(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to stop instance: %w", err)
	}
	fmt.Printf("%s %s\n", ui.WarnStyle.Render("◐ stopping"), id)
	return nil
}

// resolveInstance returns the instance ID from args, or prompts with an
// interactive selector over instances currently in wantState.
func resolveInstance(cmd *cobra.Command, client *awsclient.Client, args []string, wantState string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	instances, err := ec2.NewReader(client.EC2()).ListInstances(cmd.Context(), ec2.InstanceFilter{State: wantState})
	if err != nil {
		return "", fmt.Errorf("failed to list instances: %w", err)
	}
	if len(instances) == 0 {
		return "", fmt.Errorf("no %s instances found", wantState)
	}

	selected, err := ui.SelectInstance(instances)
	if err != nil {
		return "", err
	}
	return selected.ID, nil
}
