package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pulseflow/pulseflow/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printAutomationTable(a *model.Automation) {
	fmt.Printf("ID:          %s\n", a.ID)
	fmt.Printf("Name:        %s\n", a.Name)
	if a.Description != "" {
		fmt.Printf("Description: %s\n", a.Description)
	}
	fmt.Printf("Owner:       %s\n", a.Owner)
	fmt.Printf("Enabled:     %t\n", a.Enabled)
	fmt.Printf("Created By:  %s\n", a.CreatedBy)
	fmt.Printf("Created At:  %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated At:  %s\n", a.UpdatedAt.Format("2006-01-02 15:04:05"))
	if len(a.Nodes) > 0 {
		fmt.Println()
		fmt.Println("Nodes:")
		for _, n := range a.Nodes {
			marker := " "
			if n.IsLastNode {
				marker = "*"
			}
			label := n.Label
			if label == "" {
				label = string(n.Kind)
			}
			fmt.Printf("  %s %s  %-10s %s\n", marker, n.ID, n.Kind, label)
		}
	}
}

func printAutomationListTable(automations []*model.Automation, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tOWNER\tENABLED\tUPDATED")
	for _, a := range automations {
		name := a.Name
		if len(name) > 50 {
			name = name[:47] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			a.ID,
			name,
			a.Owner,
			a.Enabled,
			a.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\n%d automations (%d total)\n", len(automations), total)
}

func printRunTable(r *model.Run) {
	fmt.Printf("ID:            %s\n", r.ID)
	fmt.Printf("Automation:    %s\n", r.AutomationID)
	fmt.Printf("Status:        %s\n", r.Status)
	fmt.Printf("Started At:    %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	if r.StartedBy != "" {
		fmt.Printf("Started By:    %s\n", r.StartedBy)
	}
	if r.FinishedAt != nil {
		fmt.Printf("Finished At:   %s\n", r.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	if r.Error != "" {
		fmt.Printf("Error:         %s\n", r.Error)
	}
}

func printRunListTable(runs []*model.Run) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tBY\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.StartedBy,
			r.Error,
		)
	}
	w.Flush()
	fmt.Printf("\n%d runs\n", len(runs))
}

func printNodeResultTable(nr *model.NodeResult) {
	fmt.Printf("Node:       %s\n", nr.NodeID)
	fmt.Printf("Run:        %s\n", nr.RunID)
	fmt.Printf("Updated At: %s\n", nr.UpdatedAt.Format("2006-01-02 15:04:05"))
	var pretty any
	if err := json.Unmarshal(nr.Artifact, &pretty); err == nil {
		data, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Printf("Artifact:\n%s\n", string(data))
	} else {
		fmt.Printf("Artifact:   %s\n", string(nr.Artifact))
	}
}
