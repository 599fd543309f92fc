package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:     "graph <automation-id>",
	Short:   "Show an automation's node graph",
	GroupID: "automations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := pulseClient.GetGraph(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(graph)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tLABEL\tTERMINAL")
		for _, n := range graph.Nodes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", n.ID, n.Kind, n.Label, n.IsLastNode)
		}
		w.Flush()

		if len(graph.Connections) > 0 {
			fmt.Println()
			fmt.Println("Connections:")
			for _, c := range graph.Connections {
				fmt.Printf("  %s:%s -> %s:%s\n", c.SourceID, c.SourceHandle, c.TargetID, c.TargetHandle)
			}
		}

		if graph.Stats != nil {
			fmt.Printf("\n%d nodes, %d connections", graph.Stats.TotalNodes, graph.Stats.TotalConnections)
			if graph.Stats.TerminalNodeID != "" {
				fmt.Printf(", terminal %s", graph.Stats.TerminalNodeID)
			}
			fmt.Println()
		}
		return nil
	},
}
