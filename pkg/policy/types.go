package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/model"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for violations that are reported but never block
	// an import.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that abort an import before
	// confirmation.
	SeverityError Severity = "error"

	// SeverityCritical is handled like SeverityError.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether a violation of this severity denies the plan.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Validate checks the severity is one of the known levels.
func (s Severity) Validate() error {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return nil
	default:
		return fmt.Errorf("invalid severity: %s", s)
	}
}

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Source is the file the policy was loaded from. Empty for built-in
	// policies.
	Source string `json:"source,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Reference is the rendered reference of the offending entity, if the
	// policy named one.
	Reference string `json:"reference,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

func (v Violation) String() string {
	if v.Reference == "" {
		return fmt.Sprintf("%s: %s", v.Policy, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Policy, v.Reference, v.Message)
}

// Result represents the result of evaluating every enabled policy against
// one plan.
type Result struct {
	// Allowed is false when at least one blocking violation was found.
	Allowed bool `json:"allowed"`

	// Violations lists the blocking violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists violations that don't block the plan.
	Warnings []Violation `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Input is the document handed to Rego as `input`.
type Input struct {
	Plan PlanInput `json:"plan"`
}

// PlanInput describes a plan to policies.
type PlanInput struct {
	ID         string           `json:"id"`
	Operations []OperationInput `json:"operations"`

	// Tenants lists the tenants known to exist or to be created by the plan.
	Tenants []string `json:"tenants"`
}

// OperationInput describes one planned operation to policies.
type OperationInput struct {
	Kind      string `json:"kind"`
	Operation string `json:"operation"`
	Reference string `json:"reference"`
	Tenant    string `json:"tenant"`
	Key       string `json:"key"`
}

// NewInput builds the policy input for plan. knownTenants are tenants that
// exist remotely without appearing in the plan.
func NewInput(plan *engine.Plan, knownTenants []string) *Input {
	input := &Input{
		Plan: PlanInput{
			ID:         plan.ID,
			Operations: make([]OperationInput, 0, len(plan.Operations)),
		},
	}

	tenants := make(map[string]bool)
	for _, op := range plan.Operations {
		ref := op.Ref()
		input.Plan.Operations = append(input.Plan.Operations, OperationInput{
			Kind:      string(ref.Kind),
			Operation: string(op.Type),
			Reference: ref.String(),
			Tenant:    ref.Tenant,
			Key:       ref.Key,
		})
		if ref.Kind == model.KindTenant && !tenants[ref.Key] {
			tenants[ref.Key] = true
			input.Plan.Tenants = append(input.Plan.Tenants, ref.Key)
		}
	}
	for _, t := range knownTenants {
		if !tenants[t] {
			tenants[t] = true
			input.Plan.Tenants = append(input.Plan.Tenants, t)
		}
	}
	if input.Plan.Tenants == nil {
		input.Plan.Tenants = []string{}
	}

	return input
}

// DeniedError is returned by EvaluatePlan when a plan has blocking
// violations.
type DeniedError struct {
	PlanID     string
	Violations []Violation
}

func (e *DeniedError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("plan %s denied by policy: %s", e.PlanID, strings.Join(parts, "; "))
}
