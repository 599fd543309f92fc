package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pulseflow/pulseflow/internal/client"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:     "connect <automation-id> <source-node> <target-node>",
	Short:   "Wire two existing nodes together",
	GroupID: "automations",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceHandle, _ := cmd.Flags().GetString("source-handle")
		targetHandle, _ := cmd.Flags().GetString("target-handle")

		conn, err := pulseClient.CreateConnection(context.Background(), args[0], &client.CreateConnectionRequest{
			SourceID:     args[1],
			SourceHandle: sourceHandle,
			TargetID:     args[2],
			TargetHandle: targetHandle,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(conn)
		} else {
			fmt.Printf("Connected %s:%s -> %s:%s\n",
				conn.SourceID, conn.SourceHandle, conn.TargetID, conn.TargetHandle)
		}
		return nil
	},
}

func init() {
	connectCmd.Flags().String("source-handle", "", "source handle (defaults to the output handle)")
	connectCmd.Flags().String("target-handle", "", "target handle (defaults to the input handle)")
}
