package policy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := NewEngine(context.Background(), testLogger(), opts...)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

func testPlan(ops ...*engine.Operation) *engine.Plan {
	return &engine.Plan{ID: "plan-1", Operations: ops}
}

func createOp(e model.Entity) *engine.Operation {
	return &engine.Operation{Type: engine.OperationCreate, Entity: e}
}

func TestNewEngine(t *testing.T) {
	eng := newTestEngine(t)

	policies := eng.ListPolicies()
	if len(policies) != 2 {
		t.Fatalf("Expected 2 built-in policies, got: %d", len(policies))
	}
	if policies[0].Name != "confsync.builtin.tenant" || !policies[0].Enabled {
		t.Errorf("Expected enabled tenant policy first, got: %+v", policies[0])
	}
	if policies[1].Name != "confsync.builtin.update-notice" || policies[1].Enabled {
		t.Errorf("Expected disabled update notice policy, got: %+v", policies[1])
	}
}

func TestNewEngine_WithoutBuiltins(t *testing.T) {
	eng := newTestEngine(t, WithoutBuiltins())
	if n := len(eng.ListPolicies()); n != 0 {
		t.Fatalf("Expected no policies, got: %d", n)
	}
}

func TestEvaluate_TenantPolicy(t *testing.T) {
	remote := gateway.NewMemory()
	if err := remote.Seed(&model.Tenant{Name: "Live"}); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	tests := []struct {
		name          string
		plan          *engine.Plan
		expectAllowed bool
	}{
		{
			name: "tenant in plan",
			plan: testPlan(
				createOp(&model.Tenant{Name: "T1"}),
				createOp(&model.Folder{Tenant: "T1", Name: "F1"}),
			),
			expectAllowed: true,
		},
		{
			name:          "tenant exists remotely",
			plan:          testPlan(createOp(&model.Folder{Tenant: "Live", Name: "F1"})),
			expectAllowed: true,
		},
		{
			name:          "unknown tenant",
			plan:          testPlan(createOp(&model.Folder{Tenant: "Ghost", Name: "F1"})),
			expectAllowed: false,
		},
		{
			name:          "tenant-less entity",
			plan:          testPlan(createOp(&model.PhysicalSwitch{Name: "P1"})),
			expectAllowed: true,
		},
	}

	eng := newTestEngine(t, WithGateway(remote))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Evaluate(context.Background(), tt.plan)
			if err != nil {
				t.Fatalf("Evaluation failed: %v", err)
			}

			if result.Allowed != tt.expectAllowed {
				t.Errorf("Expected allowed=%v, got %v: %+v", tt.expectAllowed, result.Allowed, result.Violations)
			}
			if len(result.EvaluatedPolicies) != 1 {
				t.Errorf("Expected 1 evaluated policy, got: %v", result.EvaluatedPolicies)
			}
		})
	}
}

func TestEvaluatePlan_Denied(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.EvaluatePlan(context.Background(), testPlan(createOp(&model.Folder{Tenant: "Ghost", Name: "F1"})))
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("Expected DeniedError, got: %v", err)
	}
	if denied.PlanID != "plan-1" || len(denied.Violations) != 1 {
		t.Fatalf("Expected one violation for plan-1, got: %+v", denied)
	}

	v := denied.Violations[0]
	if v.Reference != "Folder [Ghost/F1]" {
		t.Errorf("Expected reference Folder [Ghost/F1], got: %s", v.Reference)
	}
	if v.Severity != SeverityError {
		t.Errorf("Expected severity error, got: %s", v.Severity)
	}
	if !strings.Contains(err.Error(), "tenant Ghost is neither planned nor known") {
		t.Errorf("Expected message in error, got: %v", err)
	}
}

func TestEvaluatePlan_WarningsDoNotBlock(t *testing.T) {
	eng := newTestEngine(t)
	if err := eng.EnablePolicy("confsync.builtin.update-notice"); err != nil {
		t.Fatalf("Failed to enable policy: %v", err)
	}

	plan := testPlan(&engine.Operation{Type: engine.OperationUpdate, Entity: &model.Tenant{Name: "T1"}})
	result, err := eng.Evaluate(context.Background(), plan)
	if err != nil {
		t.Fatalf("Evaluation failed: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("Expected plan to be allowed, got: %+v", result.Violations)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Reference != "Tenant [T1]" {
		t.Fatalf("Expected one warning for Tenant [T1], got: %+v", result.Warnings)
	}

	if err := eng.EvaluatePlan(context.Background(), plan); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestAddPolicy(t *testing.T) {
	eng := newTestEngine(t, WithoutBuiltins())

	err := eng.AddPolicy(context.Background(), Policy{
		Name:    "no-dn",
		Enabled: true,
		Rego: `package custom.nodn

deny contains msg if {
	some op in input.plan.operations
	op.kind == "DN"
	msg := sprintf("%s may not be imported", [op.reference])
}
`,
	})
	if err != nil {
		t.Fatalf("Failed to add policy: %v", err)
	}

	p, err := eng.GetPolicy("no-dn")
	if err != nil {
		t.Fatalf("Failed to get policy: %v", err)
	}
	if p.Severity != SeverityError {
		t.Errorf("Expected default severity error, got: %s", p.Severity)
	}

	dn := &model.DN{Scope: model.Scope{Tenant: "T1"}, DNKey: model.DNKey{Switch: "S1", Number: "100", Type: "EXT"}}
	result, err := eng.Evaluate(context.Background(), testPlan(createOp(dn)))
	if err != nil {
		t.Fatalf("Evaluation failed: %v", err)
	}
	if result.Allowed || len(result.Violations) != 1 {
		t.Fatalf("Expected one violation, got: %+v", result)
	}
	if !strings.HasSuffix(result.Violations[0].Message, "may not be imported") {
		t.Errorf("Expected string violation message, got: %s", result.Violations[0].Message)
	}
}

func TestAddPolicy_Invalid(t *testing.T) {
	eng := newTestEngine(t, WithoutBuiltins())

	tests := []struct {
		name   string
		policy Policy
	}{
		{"syntax", Policy{Name: "bad", Rego: "package bad\n\ndeny contains {"}},
		{"severity", Policy{Name: "sev", Severity: "loud", Rego: "package sev\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := eng.AddPolicy(context.Background(), tt.policy); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestEnableDisablePolicy(t *testing.T) {
	eng := newTestEngine(t)

	if err := eng.DisablePolicy("confsync.builtin.tenant"); err != nil {
		t.Fatalf("Failed to disable policy: %v", err)
	}
	err := eng.EvaluatePlan(context.Background(), testPlan(createOp(&model.Folder{Tenant: "Ghost", Name: "F1"})))
	if err != nil {
		t.Fatalf("Expected disabled policy to be skipped, got: %v", err)
	}

	if err := eng.EnablePolicy("missing"); err == nil {
		t.Fatal("Expected error for unknown policy")
	}
	if _, err := eng.GetPolicy("missing"); err == nil {
		t.Fatal("Expected error for unknown policy")
	}
}

func TestEvaluate_GatewayFailure(t *testing.T) {
	eng := newTestEngine(t, WithGateway(failingGateway{gateway.NewMemory()}))

	_, err := eng.Evaluate(context.Background(), testPlan(createOp(&model.Folder{Tenant: "T1", Name: "F1"})))
	if err == nil || !strings.Contains(err.Error(), "failed to look up tenant T1") {
		t.Fatalf("Expected lookup error, got: %v", err)
	}
}

func TestPlannerIntegration(t *testing.T) {
	remote := gateway.NewMemory()
	eng := newTestEngine(t, WithGateway(remote))

	doc, err := model.NewDocument(&model.Tenant{Name: "T1"}, &model.Folder{Tenant: "T1", Name: "F1"})
	if err != nil {
		t.Fatalf("Failed to build document: %v", err)
	}

	plan, err := engine.NewPlanner(remote, engine.WithPolicy(eng)).Plan(context.Background(), doc)
	if err != nil {
		t.Fatalf("Expected plan, got: %v", err)
	}
	if len(plan.Operations) != 2 {
		t.Fatalf("Expected 2 operations, got: %d", len(plan.Operations))
	}
}

type failingGateway struct {
	*gateway.Memory
}

func (failingGateway) Retrieve(context.Context, model.Reference) (*gateway.RemoteEntity, error) {
	return nil, errors.New("connection refused")
}
