// Package run tracks per-node execution status for in-flight automation runs.
// Status is ephemeral run-scoped state; the durable record of a run is the
// serialized artifact the store keeps per node.
package run

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pulseflow/pulseflow/internal/model"
)

var (
	// ErrStaleRun marks an update carrying a run id that is not the
	// automation's active run. Stale updates are discarded, never applied.
	ErrStaleRun = errors.New("stale run id")

	// ErrUnknownRun marks a run id the tracker has never seen.
	ErrUnknownRun = errors.New("unknown run")

	// ErrUnknownNode marks a node id outside the run's node set.
	ErrUnknownNode = errors.New("unknown node")
)

// Update describes one applied status change.
type Update struct {
	AutomationID string
	RunID        string
	NodeID       string
	Status       model.ExecutionStatus
}

// Tracker is the run-scoped status registry. Each automation has at most one
// active run; starting a new run supersedes the previous one, and updates
// that still arrive for the superseded run are fenced out by run id.
type Tracker struct {
	mu   sync.Mutex
	runs map[string]*runState // run id -> state
	// active maps an automation to its current run id. Only the active run
	// accepts status updates.
	active map[string]string

	// onChange, when set, is invoked after each applied update with the
	// tracker lock released.
	onChange func(Update)
}

type runState struct {
	automationID string
	statuses     map[string]model.ExecutionStatus
}

// NewTracker returns an empty tracker. onChange may be nil.
func NewTracker(onChange func(Update)) *Tracker {
	return &Tracker{
		runs:     make(map[string]*runState),
		active:   make(map[string]string),
		onChange: onChange,
	}
}

// StartRun registers runID as the automation's active run and resets every
// node to initial. The reset happens atomically with activation, so no
// observer can see a node from the previous run still loading once the new
// run exists, and no loading transition for the new run can be applied
// before the reset.
func (t *Tracker) StartRun(automationID, runID string, nodeIDs []string) {
	statuses := make(map[string]model.ExecutionStatus, len(nodeIDs))
	for _, id := range nodeIDs {
		statuses[id] = model.StatusInitial
	}

	t.mu.Lock()
	if prev, ok := t.active[automationID]; ok {
		delete(t.runs, prev)
	}
	t.active[automationID] = runID
	t.runs[runID] = &runState{automationID: automationID, statuses: statuses}
	t.mu.Unlock()
}

// SetStatus applies a status update from the run engine. Reapplying the
// current status is a no-op success. Updates for a superseded run return
// ErrStaleRun and leave the tracker unchanged.
func (t *Tracker) SetStatus(runID, nodeID string, status model.ExecutionStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q", status)
	}

	t.mu.Lock()
	st, ok := t.runs[runID]
	if !ok {
		t.mu.Unlock()
		return ErrStaleRun
	}
	if t.active[st.automationID] != runID {
		t.mu.Unlock()
		return ErrStaleRun
	}
	cur, ok := st.statuses[nodeID]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownNode
	}
	if cur == status {
		t.mu.Unlock()
		return nil
	}
	if !cur.CanTransition(status) {
		t.mu.Unlock()
		return fmt.Errorf("cannot transition node %s from %s to %s", nodeID, cur, status)
	}
	st.statuses[nodeID] = status
	update := Update{
		AutomationID: st.automationID,
		RunID:        runID,
		NodeID:       nodeID,
		Status:       status,
	}
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(update)
	}
	return nil
}

// FinishRun marks the run complete. Any node still loading is returned to
// initial so a finished run never leaves a node visibly in flight; success
// and error stick until the next run resets them.
func (t *Tracker) FinishRun(runID string) error {
	var updates []Update

	t.mu.Lock()
	st, ok := t.runs[runID]
	if !ok || t.active[st.automationID] != runID {
		t.mu.Unlock()
		return ErrStaleRun
	}
	for nodeID, cur := range st.statuses {
		if cur != model.StatusLoading {
			continue
		}
		st.statuses[nodeID] = model.StatusInitial
		updates = append(updates, Update{
			AutomationID: st.automationID,
			RunID:        runID,
			NodeID:       nodeID,
			Status:       model.StatusInitial,
		})
	}
	t.mu.Unlock()

	if t.onChange != nil {
		for _, u := range updates {
			t.onChange(u)
		}
	}
	return nil
}

// Evict drops all tracker state for an automation: its active-run entry and
// any run state it owns. Called when the automation is deleted; late updates
// for an evicted run get ErrStaleRun like any other superseded run.
func (t *Tracker) Evict(automationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if runID, ok := t.active[automationID]; ok {
		delete(t.runs, runID)
		delete(t.active, automationID)
	}
	for runID, st := range t.runs {
		if st.automationID == automationID {
			delete(t.runs, runID)
		}
	}
}

// Status reports a node's current status within a run.
func (t *Tracker) Status(runID, nodeID string) (model.ExecutionStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.runs[runID]
	if !ok {
		return "", ErrUnknownRun
	}
	s, ok := st.statuses[nodeID]
	if !ok {
		return "", ErrUnknownNode
	}
	return s, nil
}

// Snapshot returns a copy of every node status in a run.
func (t *Tracker) Snapshot(runID string) (map[string]model.ExecutionStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.runs[runID]
	if !ok {
		return nil, ErrUnknownRun
	}
	out := make(map[string]model.ExecutionStatus, len(st.statuses))
	for k, v := range st.statuses {
		out[k] = v
	}
	return out, nil
}

// ActiveRun reports the automation's current run id, if any.
func (t *Tracker) ActiveRun(automationID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.active[automationID]
	return id, ok
}
