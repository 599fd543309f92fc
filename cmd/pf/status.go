package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pulseflow/pulseflow/internal/client"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show automation counts by enabled state",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		count := func(enabled *bool) int {
			resp, err := pulseClient.ListAutomations(ctx, &client.ListAutomationsRequest{
				Enabled: enabled,
				Limit:   1,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return resp.Total
		}

		enabled := true
		total := count(nil)
		active := count(&enabled)

		if jsonOutput {
			out := map[string]int{
				"total":    total,
				"enabled":  active,
				"disabled": total - active,
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		} else {
			fmt.Println("PulseFlow Status")
			fmt.Printf("  Enabled:  %d\n", active)
			fmt.Printf("  Disabled: %d\n", total-active)
			fmt.Printf("  Total:    %d\n", total)
		}
		return nil
	},
}
