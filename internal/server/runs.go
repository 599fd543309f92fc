package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulseflow/pulseflow/internal/artifact"
	"github.com/pulseflow/pulseflow/internal/events"
	"github.com/pulseflow/pulseflow/internal/idgen"
	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/run"
	"github.com/pulseflow/pulseflow/internal/store"
)

// startRunInput holds transport-agnostic parameters for starting a run.
type startRunInput struct {
	StartedBy string `json:"started_by,omitempty"`
}

// startRun creates a run record, makes it the automation's active run, and
// resets every node to initial. Persisting the run and activating it happen in
// one transaction; the tracker reset is applied after commit, so a status
// update for the new run can never be accepted against pre-reset state.
func (s *PulseServer) startRun(ctx context.Context, automationID string, in startRunInput) (*model.Run, error) {
	automation, err := s.store.GetAutomation(ctx, automationID)
	if err != nil {
		return nil, err
	}
	if !automation.Enabled {
		return nil, inputError("automation is disabled")
	}
	if len(automation.Nodes) == 0 {
		return nil, inputError("automation has no nodes")
	}

	id, err := idgen.GenerateWithPrefix(idgen.PrefixRun)
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	r := &model.Run{
		ID:           id,
		AutomationID: automationID,
		Status:       model.RunActive,
		StartedAt:    time.Now().UTC(),
		StartedBy:    in.StartedBy,
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateRun(ctx, r); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		if ars, ok := tx.(activeRunStore); ok {
			if err := ars.SetActiveRun(ctx, automationID, r.ID); err != nil {
				return fmt.Errorf("failed to activate run: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	nodeIDs := make([]string, 0, len(automation.Nodes))
	for _, n := range automation.Nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	s.tracker.StartRun(automationID, r.ID, nodeIDs)

	s.recordAndPublish(ctx, events.TopicRunStarted, automationID, in.StartedBy, events.RunStarted{Run: r})

	return r, nil
}

// setNodeStatus applies a status callback from the run engine. Updates for a
// run that is no longer (or not yet known to be) the automation's active run
// return run.ErrStaleRun; the transport maps that to 409.
func (s *PulseServer) setNodeStatus(ctx context.Context, runID, nodeID string, status model.ExecutionStatus) error {
	if !status.IsValid() {
		return inputError(fmt.Sprintf("invalid status %q", status))
	}

	err := s.tracker.SetStatus(runID, nodeID, status)
	if errors.Is(err, run.ErrStaleRun) {
		// The tracker is empty after a restart. If the durable active-run
		// row still names this run, rehydrate and retry once.
		if s.rehydrateRun(ctx, runID) {
			err = s.tracker.SetStatus(runID, nodeID, status)
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, run.ErrStaleRun):
		return err
	case errors.Is(err, run.ErrUnknownNode):
		return inputError("unknown node " + nodeID)
	default:
		return inputError(err.Error())
	}
}

// rehydrateRun rebuilds tracker state for a run that is durably active but
// unknown in memory. Returns false when the run is genuinely stale or gone.
func (s *PulseServer) rehydrateRun(ctx context.Context, runID string) bool {
	ars, ok := s.store.(activeRunStore)
	if !ok {
		return false
	}
	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return false
	}
	activeID, err := ars.ActiveRun(ctx, r.AutomationID)
	if err != nil || activeID != runID {
		return false
	}
	nodes, err := s.store.GetNodes(ctx, r.AutomationID)
	if err != nil {
		return false
	}
	nodeIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	s.tracker.StartRun(r.AutomationID, runID, nodeIDs)
	slog.Info("rehydrated run state", "run_id", runID, "automation_id", r.AutomationID, "nodes", len(nodeIDs))
	return true
}

// recordNodeResult serializes a result payload from the run engine and
// upserts it as the node's durable artifact. Results carrying a stale run id
// are discarded with run.ErrStaleRun.
func (s *PulseServer) recordNodeResult(ctx context.Context, runID, nodeID string, payload any) (*model.NodeResult, error) {
	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if activeID, ok := s.tracker.ActiveRun(r.AutomationID); !ok || activeID != runID {
		if !s.rehydrateRun(ctx, runID) {
			return nil, run.ErrStaleRun
		}
	}

	result := &model.NodeResult{
		AutomationID: r.AutomationID,
		NodeID:       nodeID,
		RunID:        runID,
		Artifact:     artifact.MarshalJSON(payload),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.store.UpsertNodeResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to upsert node result: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicRunResult, r.AutomationID, "", events.RunResult{
		AutomationID: r.AutomationID,
		RunID:        runID,
		NodeID:       nodeID,
		Artifact:     result.Artifact,
	})

	return result, nil
}

// finishRunInput holds transport-agnostic parameters for finishing a run.
type finishRunInput struct {
	Status model.RunStatus `json:"status"`
	Error  string          `json:"error,omitempty"`
}

// finishRun closes out a run: the run record gets its terminal status, nodes
// still loading fall back to initial, and the active-run row is released.
func (s *PulseServer) finishRun(ctx context.Context, runID string, in finishRunInput) (*model.Run, error) {
	if in.Status != model.RunSucceeded && in.Status != model.RunFailed {
		return nil, inputError(fmt.Sprintf("status must be %q or %q", model.RunSucceeded, model.RunFailed))
	}

	r, err := s.store.FinishRun(ctx, runID, in.Status, in.Error)
	if err != nil {
		return nil, err
	}

	// A run superseded before it reported completion has nothing left to
	// reset; the newer run owns the tracker state.
	if err := s.tracker.FinishRun(runID); err != nil && !errors.Is(err, run.ErrStaleRun) {
		slog.Warn("failed to finish tracked run", "run_id", runID, "error", err)
	}
	if ars, ok := s.store.(activeRunStore); ok {
		if err := ars.ClearActiveRun(ctx, r.AutomationID, runID); err != nil {
			slog.Warn("failed to clear active run", "run_id", runID, "error", err)
		}
	}

	s.recordAndPublish(ctx, events.TopicRunFinished, r.AutomationID, "", events.RunFinished{Run: r})

	return r, nil
}
