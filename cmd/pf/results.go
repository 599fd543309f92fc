package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:     "results <automation-id> [node-id]",
	Short:   "Show the latest serialized node results",
	GroupID: "runs",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			nr, err := pulseClient.GetNodeResult(context.Background(), args[0], args[1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if jsonOutput {
				printJSON(nr)
			} else {
				printNodeResultTable(nr)
			}
			return nil
		}

		results, err := pulseClient.ListNodeResults(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(results)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NODE\tRUN\tUPDATED\tARTIFACT")
		for _, nr := range results {
			artifact := string(nr.Artifact)
			if len(artifact) > 60 {
				artifact = artifact[:57] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", nr.NodeID, nr.RunID, nr.UpdatedAt.Format("2006-01-02 15:04:05"), artifact)
		}
		w.Flush()
		fmt.Printf("\n%d results\n", len(results))
		return nil
	},
}
