package engine

import (
	"context"
	"io"
	"time"
)

// Confirmer asks the operator to accept a plan.
type Confirmer interface {
	// Confirm blocks until the operator answers yes or no.
	Confirm(prompt string) (bool, error)
}

// Printer renders one operation of a plan.
type Printer interface {
	// PrintOperation writes the operation to w.
	PrintOperation(w io.Writer, op *Operation) error
}

// PolicyGate decides whether a built plan may be offered for confirmation.
type PolicyGate interface {
	// EvaluatePlan returns an error when the plan violates a policy.
	EvaluatePlan(ctx context.Context, plan *Plan) error
}

// ApplyObserver is notified after each operation is applied.
type ApplyObserver interface {
	// OperationApplied is called with the position of the operation in the
	// plan and the error returned by the gateway, if any.
	OperationApplied(ctx context.Context, position int, op *Operation, err error)
}

// MetricsRecorder receives plan and apply measurements.
type MetricsRecorder interface {
	// RecordFindings records validation findings of one category.
	RecordFindings(category string, count int)

	// RecordCyclesBroken records the number of operations split to break
	// dependency cycles.
	RecordCyclesBroken(count int)

	// SetPlannedOperations records the number of planned operations of a
	// type.
	SetPlannedOperations(operation string, count int)

	// RecordOperationApplied records one applied operation.
	RecordOperationApplied(operation, status string, duration time.Duration)

	// RecordApply records a whole apply.
	RecordApply(status string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordFindings(string, int) {}
func (noopRecorder) RecordCyclesBroken(int) {}
func (noopRecorder) SetPlannedOperations(string, int) {}
func (noopRecorder) RecordOperationApplied(string, string, time.Duration) {}
func (noopRecorder) RecordApply(string, time.Duration) {}
