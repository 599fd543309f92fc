package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/ui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Start and inspect automation runs",
	GroupID: "runs",
}

var runStartCmd = &cobra.Command{
	Use:   "start <automation-id>",
	Short: "Start a new run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := pulseClient.StartRun(context.Background(), args[0], actor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(run)
		} else {
			printRunTable(run)
		}
		return nil
	},
}

var runShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := pulseClient.GetRun(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(run)
		} else {
			printRunTable(run)
		}
		return nil
	},
}

var runListCmd = &cobra.Command{
	Use:   "list <automation-id>",
	Short: "List runs for an automation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := pulseClient.ListRuns(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(runs)
		} else {
			printRunListTable(runs)
		}
		return nil
	},
}

var runStatusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Show per-node execution statuses for an active run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := pulseClient.RunStatus(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(statuses)
			return nil
		}

		nodeIDs := make([]string, 0, len(statuses))
		for id := range statuses {
			nodeIDs = append(nodeIDs, id)
		}
		sort.Strings(nodeIDs)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NODE\tSTATUS")
		for _, id := range nodeIDs {
			fmt.Fprintf(w, "%s\t%s\n", id, ui.Status(string(statuses[id])))
		}
		return w.Flush()
	},
}

var runNodeStatusCmd = &cobra.Command{
	Use:   "node-status <run-id> <node-id> <status>",
	Short: "Report a node's execution status (engine callback)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.ExecutionStatus(args[2])
		if err := pulseClient.SetNodeStatus(context.Background(), args[0], args[1], status); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s/%s -> %s\n", args[0], args[1], status)
		return nil
	},
}

var runNodeResultCmd = &cobra.Command{
	Use:   "node-result <run-id> <node-id> <json-result>",
	Short: "Record a node's result payload (engine callback)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result any
		if err := json.Unmarshal([]byte(args[2]), &result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: result must be valid JSON: %v\n", err)
			os.Exit(1)
		}

		nr, err := pulseClient.RecordNodeResult(context.Background(), args[0], args[1], result)
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
	},
}

var runFinishCmd = &cobra.Command{
	Use:   "finish <run-id>",
	Short: "Finish a run as succeeded or failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed, _ := cmd.Flags().GetBool("failed")
		runErr, _ := cmd.Flags().GetString("error")

		status := model.RunSucceeded
		if failed || runErr != "" {
			status = model.RunFailed
		}

		run, err := pulseClient.FinishRun(context.Background(), args[0], status, runErr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(run)
		} else {
			printRunTable(run)
		}
		return nil
	},
}

func init() {
	runFinishCmd.Flags().Bool("failed", false, "mark the run as failed")
	runFinishCmd.Flags().String("error", "", "error message (implies --failed)")

	runCmd.AddCommand(runStartCmd)
	runCmd.AddCommand(runShowCmd)
	runCmd.AddCommand(runListCmd)
	runCmd.AddCommand(runStatusCmd)
	runCmd.AddCommand(runNodeStatusCmd)
	runCmd.AddCommand(runNodeResultCmd)
	runCmd.AddCommand(runFinishCmd)
}
