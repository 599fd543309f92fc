package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pulseflow/pulseflow/internal/client"
	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a new automation",
	GroupID: "automations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		description, _ := cmd.Flags().GetString("description")
		owner, _ := cmd.Flags().GetString("owner")
		disabled, _ := cmd.Flags().GetBool("disabled")
		seedKind, _ := cmd.Flags().GetString("seed-kind")
		seedParams, _ := cmd.Flags().GetString("seed-params")
		seedLabel, _ := cmd.Flags().GetString("seed-label")

		req := &client.CreateAutomationRequest{
			Name:        name,
			Description: description,
			Owner:       owner,
			Enabled:     !disabled,
			CreatedBy:   actor,
		}

		if seedKind != "" {
			if seedParams == "" {
				fmt.Fprintln(os.Stderr, "Error: --seed-params is required with --seed-kind")
				os.Exit(1)
			}
			if !json.Valid([]byte(seedParams)) {
				fmt.Fprintln(os.Stderr, "Error: --seed-params must be valid JSON")
				os.Exit(1)
			}
			req.Seed = &client.SeedNode{
				Kind:   model.NodeKind(seedKind),
				Label:  seedLabel,
				Params: json.RawMessage(seedParams),
			}
		}

		automation, err := pulseClient.CreateAutomation(context.Background(), req)
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

func init() {
	createCmd.Flags().StringP("description", "d", "", "automation description")
	createCmd.Flags().String("owner", "", "owner")
	createCmd.Flags().Bool("disabled", false, "create the automation disabled")
	createCmd.Flags().String("seed-kind", "", "kind of the first node (transfer, swap, approve)")
	createCmd.Flags().String("seed-params", "", "JSON params for the first node")
	createCmd.Flags().String("seed-label", "", "label for the first node")
}
