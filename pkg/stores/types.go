package stores

import (
	"context"
	"time"

	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/gateway"
)

// Run is one import that reached confirmation.
type Run struct {
	ID           string           `json:"id"`
	PlanID       string           `json:"plan_id"`
	DocumentPath string           `json:"document_path"`
	Status       engine.RunStatus `json:"status"`
	Created      int              `json:"created"`
	Updated      int              `json:"updated"`
	Skipped      int              `json:"skipped"`
	Error        *string          `json:"error,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// OperationStatus is the outcome of one applied operation.
type OperationStatus string

const (
	OperationStatusSucceeded OperationStatus = "succeeded"
	OperationStatusFailed    OperationStatus = "failed"
)

// RunOperation is one operation applied during a run.
type RunOperation struct {
	RunID     string               `json:"run_id"`
	Position  int                  `json:"position"`
	Operation engine.OperationType `json:"operation"`
	Kind      string               `json:"kind"`
	Tenant    string               `json:"tenant,omitempty"`
	Key       string               `json:"key"`
	Status    OperationStatus      `json:"status"`
	Error     *string              `json:"error,omitempty"`
	AppliedAt time.Time            `json:"applied_at"`
}

// Store defines the interface for the persistence layer. It holds the live
// configuration and the import history.
type Store interface {
	gateway.Gateway

	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	CompleteRun(ctx context.Context, id string, status engine.RunStatus, tally engine.Tally, errMsg *string) error
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// RunOperation operations
	RecordOperation(ctx context.Context, op *RunOperation) error
	ListRunOperations(ctx context.Context, runID string) ([]*RunOperation, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
