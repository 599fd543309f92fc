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

var appendCmd = &cobra.Command{
	Use:     "append <automation-id>",
	Short:   "Append a node to the end of an automation's chain",
	GroupID: "automations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		params, _ := cmd.Flags().GetString("params")
		label, _ := cmd.Flags().GetString("label")
		x, _ := cmd.Flags().GetFloat64("x")
		y, _ := cmd.Flags().GetFloat64("y")

		if !json.Valid([]byte(params)) {
			fmt.Fprintln(os.Stderr, "Error: --params must be valid JSON")
			os.Exit(1)
		}

		resp, err := pulseClient.AppendNode(context.Background(), args[0], &client.AppendNodeRequest{
			Kind:     model.NodeKind(kind),
			Label:    label,
			Params:   json.RawMessage(params),
			Position: model.Position{X: x, Y: y},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			fmt.Printf("Appended %s (%s) to %s\n", resp.Node.ID, resp.Node.Kind, args[0])
			fmt.Printf("Connection: %s:%s -> %s:%s\n",
				resp.Connection.SourceID, resp.Connection.SourceHandle,
				resp.Connection.TargetID, resp.Connection.TargetHandle)
		}
		return nil
	},
}

func init() {
	appendCmd.Flags().StringP("kind", "k", "", "node kind (transfer, swap, approve)")
	appendCmd.Flags().StringP("params", "p", "", "JSON params for the node")
	appendCmd.Flags().StringP("label", "l", "", "node label")
	appendCmd.Flags().Float64("x", 0, "canvas x position")
	appendCmd.Flags().Float64("y", 0, "canvas y position")
	_ = appendCmd.MarkFlagRequired("kind")
	_ = appendCmd.MarkFlagRequired("params")
}
