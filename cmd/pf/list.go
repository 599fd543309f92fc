package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pulseflow/pulseflow/internal/client"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List automations",
	GroupID: "automations",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		req := &client.ListAutomationsRequest{
			Owner:  owner,
			Search: search,
			Sort:   sort,
			Limit:  limit,
			Offset: offset,
		}
		if cmd.Flags().Changed("enabled") {
			enabled, _ := cmd.Flags().GetBool("enabled")
			req.Enabled = &enabled
		}

		resp, err := pulseClient.ListAutomations(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(resp.Automations)
		} else {
			printAutomationListTable(resp.Automations, resp.Total)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("owner", "", "filter by owner")
	listCmd.Flags().Bool("enabled", true, "filter by enabled state")
	listCmd.Flags().String("search", "", "full-text search on name/description")
	listCmd.Flags().String("sort", "", "sort order (e.g. -updated_at, name)")
	listCmd.Flags().Int("limit", 20, "maximum number of automations to return")
	listCmd.Flags().Int("offset", 0, "offset for pagination")
}
