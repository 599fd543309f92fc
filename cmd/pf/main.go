package main

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pulseflow/pulseflow/internal/client"
	"github.com/pulseflow/pulseflow/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	noColor    bool
	actor      string

	pulseClient client.PulseClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultServer() string {
	if s := os.Getenv("PULSE_SERVER"); s != "" {
		return s
	}
	if r, ok := activeRemote(); ok && r.URL != "" {
		return r.URL
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if t := os.Getenv("PULSE_TOKEN"); t != "" {
		return t
	}
	r, _ := activeRemote()
	return r.Token
}

var rootCmd = &cobra.Command{
	Use:   "pf <command>",
	Short: "CLI client for the PulseFlow service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.Disable()
		}
		pulseClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pulseClient != nil {
			pulseClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "PulseFlow server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name for created_by fields")

	rootCmd.AddGroup(
		&cobra.Group{ID: "automations", Title: "Automations:"},
		&cobra.Group{ID: "runs", Title: "Runs:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Automations
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(eventsCmd)

	// Runs
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
