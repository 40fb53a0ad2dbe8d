package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RunStatus represents the overall status of an import run.
type RunStatus string

const (
	// RunStatusRunning indicates the plan is being applied.
	RunStatusRunning RunStatus = "running"

	// RunStatusSucceeded indicates every operation was applied.
	RunStatusSucceeded RunStatus = "succeeded"

	// RunStatusFailed indicates the run stopped at a failing operation.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled indicates the operator declined the plan.
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal returns true if the run status represents a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed || s == RunStatusCancelled
}

// Validate checks if the run status is valid.
func (s RunStatus) Validate() error {
	switch s {
	case RunStatusRunning, RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid run status: %s", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s RunStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler and rejects unknown statuses.
func (s *RunStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := RunStatus(str)
	if err := status.Validate(); err != nil {
		return err
	}
	*s = status
	return nil
}

// RunStatusFor maps the outcome of a confirmation or apply to a final run
// status.
func RunStatusFor(err error) RunStatus {
	switch {
	case err == nil:
		return RunStatusSucceeded
	case errors.Is(err, ErrCancelled):
		return RunStatusCancelled
	default:
		return RunStatusFailed
	}
}
