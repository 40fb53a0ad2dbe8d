package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfroyo/confsync/pkg/engine"
)

// RunRecorder writes the history of one import. It is registered on the
// planner as an engine.ApplyObserver before the plan exists; Start binds it
// to the confirmed plan.
type RunRecorder struct {
	store        Store
	documentPath string
	logger       zerolog.Logger
	run          *Run
}

var _ engine.ApplyObserver = (*RunRecorder)(nil)

// NewRunRecorder creates a recorder for an import of documentPath.
func NewRunRecorder(store Store, documentPath string, logger zerolog.Logger) *RunRecorder {
	return &RunRecorder{
		store:        store,
		documentPath: documentPath,
		logger:       logger.With().Str("component", "history").Logger(),
	}
}

// Start records a running run for plan.
func (r *RunRecorder) Start(ctx context.Context, plan *engine.Plan) (*Run, error) {
	run := &Run{
		ID:           uuid.New().String(),
		PlanID:       plan.ID,
		DocumentPath: r.documentPath,
		Status:       engine.RunStatusRunning,
		StartedAt:    time.Now(),
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	r.run = run
	r.logger.Debug().Str("run_id", run.ID).Str("plan_id", plan.ID).Msg("Run started.")
	return run, nil
}

// OperationApplied implements engine.ApplyObserver. Failures to record are
// logged; they never interrupt the apply.
func (r *RunRecorder) OperationApplied(ctx context.Context, position int, op *engine.Operation, err error) {
	if r.run == nil {
		return
	}

	ref := op.Ref()
	record := &RunOperation{
		RunID:     r.run.ID,
		Position:  position,
		Operation: op.Type,
		Kind:      string(ref.Kind),
		Tenant:    ref.Tenant,
		Key:       ref.Key,
		Status:    OperationStatusSucceeded,
		AppliedAt: time.Now(),
	}
	if err != nil {
		msg := err.Error()
		record.Status = OperationStatusFailed
		record.Error = &msg
	}

	if recErr := r.store.RecordOperation(ctx, record); recErr != nil {
		r.logger.Warn().Err(recErr).Str("run_id", r.run.ID).Int("position", position).Msg("Failed to record operation.")
	}
}

// Finish records the outcome of the run. cause is the error returned by
// confirmation or apply, if any.
func (r *RunRecorder) Finish(ctx context.Context, tally engine.Tally, cause error) error {
	if r.run == nil {
		return fmt.Errorf("run not started")
	}

	status := engine.RunStatusFor(cause)
	var errMsg *string
	if status == engine.RunStatusFailed {
		msg := cause.Error()
		errMsg = &msg
	}
	if tally == nil {
		tally = engine.NewTally()
	}

	if err := r.store.CompleteRun(ctx, r.run.ID, status, tally, errMsg); err != nil {
		return err
	}
	r.run.Status = status
	r.logger.Debug().Str("run_id", r.run.ID).Str("status", string(status)).Msg("Run finished.")
	return nil
}

// Run returns the run being recorded, or nil before Start.
func (r *RunRecorder) Run() *Run {
	return r.run
}
