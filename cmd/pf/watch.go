package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pulseflow/pulseflow/internal/client"
	"github.com/pulseflow/pulseflow/internal/events"
	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/spf13/cobra"
)

// viewConfig is the client-side interpretation of a view:{name} config value.
type viewConfig struct {
	Filter viewFilter `json:"filter"`
	Sort   string     `json:"sort"`
	Limit  int        `json:"limit"`
}

type viewFilter struct {
	Owner   string `json:"owner"`
	Enabled *bool  `json:"enabled"`
	Search  string `json:"search"`
}

var watchCmd = &cobra.Command{
	Use:     "watch <view-name>",
	Short:   "Watch for automations matching a saved view",
	GroupID: "runs",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")

		req, err := resolveView(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		w := &viewWatcher{req: req, seen: map[string]time.Time{}}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := w.refresh(ctx); err != nil {
			return err
		}
		if once {
			return nil
		}

		// With a broker we react to events; otherwise we poll.
		if url := watchBusURL(); url != "" {
			return w.followBus(ctx, url)
		}
		return w.poll(ctx, interval)
	},
}

// resolveView turns a saved view:{name} config into a list request.
func resolveView(name string) (*client.ListAutomationsRequest, error) {
	cfg, err := pulseClient.GetConfig(context.Background(), "view:"+name)
	if err != nil {
		return nil, err
	}
	var vc viewConfig
	if err := json.Unmarshal(cfg.Value, &vc); err != nil {
		return nil, fmt.Errorf("parsing view config: %w", err)
	}
	return &client.ListAutomationsRequest{
		Owner:   strings.ReplaceAll(vc.Filter.Owner, "$PULSE_ACTOR", actor),
		Enabled: vc.Filter.Enabled,
		Search:  vc.Filter.Search,
		Sort:    vc.Sort,
		Limit:   vc.Limit,
	}, nil
}

// watchBusURL picks the NATS URL for event-driven watching, the
// environment winning over the active remote.
func watchBusURL() string {
	if url := os.Getenv("PULSE_NATS_URL"); url != "" {
		return url
	}
	r, _ := activeRemote()
	return r.NATSURL
}

// viewWatcher re-runs one saved view and prints automations that are new
// or changed since the last refresh.
type viewWatcher struct {
	req  *client.ListAutomationsRequest
	seen map[string]time.Time
}

// refresh queries the view and prints anything that changed.
func (w *viewWatcher) refresh(ctx context.Context) error {
	resp, err := pulseClient.ListAutomations(ctx, w.req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var changed []*model.Automation
	for _, a := range resp.Automations {
		if prev, ok := w.seen[a.ID]; !ok || !a.UpdatedAt.Equal(prev) {
			changed = append(changed, a)
		}
		w.seen[a.ID] = a.UpdatedAt
	}
	if len(changed) == 0 {
		return nil
	}
	if jsonOutput {
		printJSON(changed)
	} else {
		printAutomationListTable(changed, resp.Total)
	}
	return nil
}

// followBus refreshes on pulse.* events, debounced so a burst of run
// updates becomes one query. A reconnect triggers an immediate refresh
// to cover events missed while disconnected.
func (w *viewWatcher) followBus(ctx context.Context, natsURL string) error {
	reconnected := make(chan struct{}, 1)
	bus, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnected <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer bus.Close()

	feed, err := bus.Subscribe("pulse.>")
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer feed.Stop()

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-feed.C():
			if !ok {
				return nil
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnected:
			debounce.Reset(0)
		case <-debounce.C:
			if err := w.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *viewWatcher) poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := w.refresh(ctx); err != nil {
			return err
		}
	}
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval")
	watchCmd.Flags().Bool("once", false, "exit after first poll")
}
