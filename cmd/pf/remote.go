package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Remote is a named server profile: where to reach the API, how to
// authenticate, and optionally which NATS broker carries its events.
type Remote struct {
	URL         string `toml:"url"`
	Token       string `toml:"token,omitempty"`
	NATSURL     string `toml:"nats_url,omitempty"`
	Description string `toml:"description,omitempty"`
}

// RemotesConfig is the on-disk remotes file. Active names the profile
// pf uses when --server is not given.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

func remotesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "pulseflow", "remotes.toml"), nil
}

// loadRemotes reads the remotes file. A missing file is an empty config,
// not an error.
func loadRemotes() (RemotesConfig, error) {
	path, err := remotesPath()
	if err != nil {
		return RemotesConfig{}, err
	}
	cfg := RemotesConfig{Remotes: map[string]Remote{}}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return RemotesConfig{}, err
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

// saveRemotes writes the config with owner-only permissions; the file
// holds bearer tokens.
func saveRemotes(cfg RemotesConfig) error {
	path, err := remotesPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// updateRemotes loads the config, applies fn, and persists the result
// when fn succeeds.
func updateRemotes(fn func(*RemotesConfig) error) error {
	cfg, err := loadRemotes()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	return saveRemotes(cfg)
}

var (
	activeOnce   sync.Once
	activeCached Remote
	activeFound  bool
)

// activeRemote resolves the active profile once per process. Flag
// defaults read it before cobra parses anything, so a broken file just
// means no active remote.
func activeRemote() (Remote, bool) {
	activeOnce.Do(func() {
		cfg, err := loadRemotes()
		if err != nil || cfg.Active == "" {
			return
		}
		activeCached, activeFound = cfg.Remotes[cfg.Active]
	})
	return activeCached, activeFound
}

// maskToken keeps enough of a token to recognize it without exposing it.
func maskToken(tok string) string {
	if len(tok) > 8 {
		return tok[:8] + "..."
	}
	return tok
}

func renderRemotesTable(out io.Writer, cfg RemotesConfig) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tURL\tTOKEN\tDESCRIPTION")
	for _, name := range slices.Sorted(maps.Keys(cfg.Remotes)) {
		r := cfg.Remotes[name]
		marker := "  "
		if name == cfg.Active {
			marker = "* "
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", marker, name, r.URL, maskToken(r.Token), r.Description)
	}
	return w.Flush()
}

func renderRemoteDetail(out io.Writer, name string, r Remote, active bool) error {
	title := name
	if active {
		title += " (active)"
	}
	rows := [][2]string{{"name", title}}
	if r.Description != "" {
		rows = append(rows, [2]string{"description", r.Description})
	}
	rows = append(rows, [2]string{"url", r.URL})
	if r.Token != "" {
		rows = append(rows, [2]string{"token", maskToken(r.Token)})
	}
	if r.NATSURL != "" {
		rows = append(rows, [2]string{"nats_url", r.NATSURL})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
	}
	return w.Flush()
}

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named server remotes",
	GroupID: "system",
	// Skip client setup; all remote subcommands are local file operations.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := Remote{URL: args[1]}
		r.Token, _ = cmd.Flags().GetString("token")
		r.NATSURL, _ = cmd.Flags().GetString("nats")
		r.Description, _ = cmd.Flags().GetString("description")

		err := updateRemotes(func(cfg *RemotesConfig) error {
			cfg.Remotes[args[0]] = r
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added remote %s (%s)\n", args[0], r.URL)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if _, ok := cfg.Remotes[name]; !ok {
				return fmt.Errorf("remote %q not found", name)
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Removed remote %s\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all remotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotes()
		if err != nil {
			return err
		}
		if len(cfg.Remotes) == 0 {
			fmt.Println("no remotes configured")
			return nil
		}
		return renderRemotesTable(cmd.OutOrStdout(), cfg)
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the active remote (no args clears it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if len(args) == 0 {
				cfg.Active = ""
				return nil
			}
			if _, ok := cfg.Remotes[args[0]]; !ok {
				return fmt.Errorf("remote %q not found", args[0])
			}
			cfg.Active = args[0]
			return nil
		})
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Println("Cleared active remote")
		} else {
			fmt.Printf("Switched to remote %s\n", args[0])
		}
		return nil
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show details for a remote (defaults to active)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotes()
		if err != nil {
			return err
		}
		name := cfg.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no active remote; specify a name or run 'pf remote use <name>'")
		}
		r, ok := cfg.Remotes[name]
		if !ok {
			return fmt.Errorf("remote %q not found", name)
		}
		return renderRemoteDetail(cmd.OutOrStdout(), name, r, name == cfg.Active)
	},
}

func init() {
	remoteAddCmd.Flags().String("token", "", "bearer token for authentication")
	remoteAddCmd.Flags().String("nats", "", "NATS URL for event streaming")
	remoteAddCmd.Flags().String("description", "", "human-readable description of the remote")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteListCmd, remoteUseCmd, remoteShowCmd)
}
