package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pulseflow/pulseflow/internal/client"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update an automation's fields",
	GroupID: "automations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.UpdateAutomationRequest{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			req.Name = &name
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			req.Description = &description
		}
		if cmd.Flags().Changed("owner") {
			owner, _ := cmd.Flags().GetString("owner")
			req.Owner = &owner
		}

		automation, err := pulseClient.UpdateAutomation(context.Background(), args[0], req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(automation)
		} else {
			printAutomationTable(automation)
		}
		return nil
	},
}

// setEnabled flips the enabled flag on an automation.
func setEnabled(id string, enabled bool) error {
	req := &client.UpdateAutomationRequest{Enabled: &enabled}
	automation, err := pulseClient.UpdateAutomation(context.Background(), id, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(automation)
	} else {
		fmt.Printf("%s enabled=%t\n", automation.ID, automation.Enabled)
	}
	return nil
}

var enableCmd = &cobra.Command{
	Use:     "enable <id>",
	Short:   "Enable an automation",
	GroupID: "automations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:     "disable <id>",
	Short:   "Disable an automation",
	GroupID: "automations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], false)
	},
}

func init() {
	updateCmd.Flags().String("name", "", "new name")
	updateCmd.Flags().StringP("description", "d", "", "new description")
	updateCmd.Flags().String("owner", "", "new owner")
}
