package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/andrescamacho/econsim-go/internal/infrastructure/checkpoint"
	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

// AgentSnapshot is the opaque-to-the-substrate blob shape this Runtime
// writes on SAVE_CHECKPOINT and reads back on LOAD_CHECKPOINT. It covers
// only the substrate-owned fields of agent.Agent (balance, inventory,
// land); contract and accounting state are not part of the round-trip,
// per agent.Agent.Restore's doc comment.
type AgentSnapshot struct {
	Balance   int64                          `json:"balance"`
	Inventory map[string]fixedpoint.Quantity `json:"inventory"`
	Land      map[string]float64             `json:"land"`
}

// Snapshot captures the runtime's bound agent's current observable state.
func (r *Runtime) Snapshot() AgentSnapshot {
	return AgentSnapshot{
		Balance:   r.agent.Balance(),
		Inventory: r.agent.Inventory().Snapshot(),
		Land:      r.agent.Land().Snapshot(),
	}
}

// checkpointComponent is this agent's row key within the shared checkpoints
// table: one row per checkpointable component.
func (r *Runtime) checkpointComponent() string {
	return "agent:" + r.agent.ID().Value()
}

// SetCheckpointStore attaches the gorm/sqlite-backed checkpoint store this
// runtime persists its agent snapshots to. Nil (the default) makes
// SAVE_CHECKPOINT/LOAD_CHECKPOINT handling a no-op, mirroring SetMetrics.
func (r *Runtime) SetCheckpointStore(store *checkpoint.Store, runID string) {
	r.checkpointStore = store
	r.runID = runID
}

// handleSaveCheckpoint serializes this agent's snapshot and writes it under
// the given step, on the manager's checkpoint cadence.
func (r *Runtime) handleSaveCheckpoint(ctx context.Context, step int) {
	if err := r.SaveCheckpointSync(ctx, step); err != nil && r.checkpointStore != nil {
		r.logger.Error("checkpoint save failed", slog.String("agent", r.agent.ID().Value()), slog.Any("err", err))
	}
}

// handleLoadCheckpoint restores this agent's balance/inventory/land from
// the checkpoint store at the given step, or the latest step written if
// step is negative.
func (r *Runtime) handleLoadCheckpoint(ctx context.Context, step int) {
	if r.checkpointStore == nil {
		return
	}
	if step < 0 {
		latest, err := r.checkpointStore.LatestStep(ctx, r.runID, r.checkpointComponent())
		if err != nil {
			r.logger.Error("checkpoint latest-step lookup failed", slog.String("agent", r.agent.ID().Value()), slog.Any("err", err))
			return
		}
		step = latest
	}
	if err := r.LoadCheckpointSync(ctx, step); err != nil {
		r.logger.Error("checkpoint load failed", slog.String("agent", r.agent.ID().Value()), slog.Any("err", err))
	}
}

// SaveCheckpointSync serializes this runtime's agent snapshot and writes it
// synchronously, returning any error. Exported so callers (tests, a
// supervisor-driven checkpoint pass outside the packet-dispatch path) can
// observe success/failure directly rather than only through logs.
func (r *Runtime) SaveCheckpointSync(ctx context.Context, step int) error {
	if r.checkpointStore == nil {
		return fmt.Errorf("no checkpoint store attached")
	}
	blob, err := json.Marshal(r.Snapshot())
	if err != nil {
		return err
	}
	return r.checkpointStore.Save(ctx, r.runID, r.checkpointComponent(), step, blob)
}

// LoadCheckpointSync restores this runtime's agent synchronously and
// returns any error, for callers (tests, the supervisor's resume path)
// that need to observe the restored state immediately rather than racing
// the dispatch loop's own LOAD_CHECKPOINT handling.
func (r *Runtime) LoadCheckpointSync(ctx context.Context, step int) error {
	if r.checkpointStore == nil {
		return fmt.Errorf("no checkpoint store attached")
	}
	blob, err := r.checkpointStore.Load(ctx, r.runID, r.checkpointComponent(), step)
	if err != nil {
		return err
	}
	var snap AgentSnapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return err
	}
	r.agent.Restore(snap.Balance, snap.Inventory, snap.Land)
	return nil
}
