package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

const kindNode model.Kind = "Node"

// node is a minimal entity whose references are listed explicitly.
type node struct {
	Name     string   `json:"name"`
	Deps     []string `json:"deps,omitempty"`
	Value    string   `json:"value,omitempty"`
	Required string   `json:"required,omitempty"`
	Fixed    string   `json:"fixed,omitempty"`
	NoBare   bool     `json:"noBare,omitempty"`
}

func (n *node) Ref() model.Reference {
	return model.NewReference(kindNode, "", n.Name)
}

func (n *node) References() []model.Reference {
	refs := make([]model.Reference, 0, len(n.Deps))
	for _, dep := range n.Deps {
		refs = append(refs, model.NewReference(kindNode, "", dep))
	}
	return model.UniqueReferences(refs...)
}

func (n *node) MissingProperties(_ model.CheckContext) []string {
	if n.Required == "" {
		return []string{"required"}
	}
	return nil
}

func (n *node) UnchangeableViolations(live model.Entity) []string {
	l, ok := live.(*node)
	if !ok {
		return nil
	}
	if n.Fixed != "" && l.Fixed != "" && n.Fixed != l.Fixed {
		return []string{"fixed"}
	}
	return nil
}

func (n *node) Bare() (model.Entity, bool) {
	if n.NoBare {
		return nil, false
	}
	return &node{Name: n.Name, Required: n.Required}, true
}

func newNode(name string, deps ...string) *node {
	return &node{Name: name, Deps: deps, Required: "yes"}
}

func strPtr(s string) *string { return &s }

func create(e model.Entity) *Operation {
	return &Operation{Type: OperationCreate, Entity: e}
}

func newDocument(t *testing.T, entities ...model.Entity) *model.Document {
	t.Helper()
	doc, err := model.NewDocument(entities...)
	if err != nil {
		t.Fatalf("Expected no error building document, got: %v", err)
	}
	return doc
}

func seededMemory(t *testing.T, entities ...model.Entity) *gateway.Memory {
	t.Helper()
	gw := gateway.NewMemory()
	if err := gw.Seed(entities...); err != nil {
		t.Fatalf("Expected no error seeding gateway, got: %v", err)
	}
	return gw
}

func refsOf(ops []*Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}

// answer is a Confirmer with a fixed reply.
type answer bool

func (a answer) Confirm(string) (bool, error) { return bool(a), nil }

// recordingMetrics keeps what the planner reports.
type recordingMetrics struct {
	mu       sync.Mutex
	findings map[string]int
	broken   int
	planned  map[string]int
	applied  map[string]int
	applies  []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		findings: make(map[string]int),
		planned:  make(map[string]int),
		applied:  make(map[string]int),
	}
}

func (r *recordingMetrics) RecordFindings(category string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings[category] += count
}

func (r *recordingMetrics) RecordCyclesBroken(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broken += count
}

func (r *recordingMetrics) SetPlannedOperations(operation string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.planned[operation] = count
}

func (r *recordingMetrics) RecordOperationApplied(operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied[operation+"/"+status]++
}

func (r *recordingMetrics) RecordApply(status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applies = append(r.applies, status)
}

// observed records the apply notifications.
type observed struct {
	positions []int
	errs      []error
}

func (o *observed) OperationApplied(_ context.Context, position int, _ *Operation, err error) {
	o.positions = append(o.positions, position)
	o.errs = append(o.errs, err)
}

// denyAll is a PolicyGate rejecting every plan.
type denyAll struct{ err error }

func (d denyAll) EvaluatePlan(context.Context, *Plan) error { return d.err }

// failingGateway fails every call.
type failingGateway struct{ err error }

func (f *failingGateway) Retrieve(context.Context, model.Reference) (*gateway.RemoteEntity, error) {
	return nil, f.err
}

func (f *failingGateway) RetrieveMany(context.Context, model.Kind, gateway.Filter) ([]*gateway.RemoteEntity, error) {
	return nil, f.err
}

func (f *failingGateway) Create(context.Context, model.Entity) (*gateway.RemoteEntity, error) {
	return nil, f.err
}

func (f *failingGateway) Update(context.Context, model.Entity, *gateway.RemoteEntity) (*gateway.RemoteEntity, error) {
	return nil, f.err
}

// ctxCheckingGateway records whether a write saw a cancelled context.
type ctxCheckingGateway struct {
	*gateway.Memory
	sawCancelled bool
}

func (g *ctxCheckingGateway) Create(ctx context.Context, entity model.Entity) (*gateway.RemoteEntity, error) {
	if ctx.Err() != nil {
		g.sawCancelled = true
	}
	return g.Memory.Create(ctx, entity)
}
