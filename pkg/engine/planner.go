package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/google/uuid"

	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

const tracerName = "github.com/openfroyo/confsync/pkg/engine"

// Planner turns desired-state documents into plans.
type Planner struct {
	// gateway is used to read and write live state
	gateway gateway.Gateway

	logger   zerolog.Logger
	metrics  MetricsRecorder
	policy   PolicyGate
	observer ApplyObserver
	tracer   trace.Tracer

	// checkUnchangeable makes plan construction reject updates that change
	// unchangeable properties
	checkUnchangeable bool
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) PlannerOption {
	return func(p *Planner) { p.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) PlannerOption {
	return func(p *Planner) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithPolicy sets the policy gate evaluated on every built plan.
func WithPolicy(gate PolicyGate) PlannerOption {
	return func(p *Planner) { p.policy = gate }
}

// WithApplyObserver sets the observer notified during apply.
func WithApplyObserver(o ApplyObserver) PlannerOption {
	return func(p *Planner) { p.observer = o }
}

// WithUnchangeableCheck enables or disables rejecting updates that change
// unchangeable properties at plan construction. It is enabled by default.
func WithUnchangeableCheck(enabled bool) PlannerOption {
	return func(p *Planner) { p.checkUnchangeable = enabled }
}

// NewPlanner creates a planner working against gw.
func NewPlanner(gw gateway.Gateway, opts ...PlannerOption) *Planner {
	p := &Planner{
		gateway:           gw,
		logger:            zerolog.Nop(),
		metrics:           noopRecorder{},
		tracer:            otel.Tracer(tracerName),
		checkUnchangeable: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "planner").Logger()
	return p
}

// Validate runs every validation check against doc.
func (p *Planner) Validate(ctx context.Context, doc *model.Document) error {
	err := NewValidator(p.gateway, p.logger).Validate(ctx, doc)
	p.recordFindings(err)
	return err
}

// Plan classifies every entity of doc, checks that the resulting creations
// can succeed, breaks dependency cycles and orders the operations.
//
// A plan is never returned when an entity to create misses a mandatory
// property or a dependency: the *ValidationError is returned instead, before
// anything is written remotely.
func (p *Planner) Plan(ctx context.Context, doc *model.Document) (*Plan, error) {
	ctx, span := p.tracer.Start(ctx, "plan.build",
		trace.WithAttributes(attribute.Int("document.entities", doc.Len())))
	defer span.End()

	plan, err := p.build(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("plan.id", plan.ID),
		attribute.Int("plan.operations", len(plan.Operations)),
		attribute.Int("plan.split", plan.Split),
	)
	span.SetStatus(codes.Ok, "")
	return plan, nil
}

func (p *Planner) build(ctx context.Context, doc *model.Document) (*Plan, error) {
	p.logger.Info().Msg("Preparing import.")

	view := newRemoteView(ctx, p.gateway)
	operations := make([]*Operation, 0, doc.Len())
	var creates, updates []model.Entity

	for _, e := range doc.Entities() {
		p.logger.Debug().Str("resource", e.Ref().String()).Msg("Processing.")

		op, err := ToOperation(ctx, p.gateway, e)
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
		view.cache[e.Ref()] = op.Remote

		switch op.Type {
		case OperationCreate:
			creates = append(creates, e)
		case OperationUpdate:
			updates = append(updates, e)
		}
	}

	findings, err := findMissingProperties(doc, creates, view)
	if err != nil {
		return nil, err
	}
	missingDependencies, err := findMissingDependencies(doc, creates, view)
	if err != nil {
		return nil, err
	}
	findings = append(findings, missingDependencies...)
	if p.checkUnchangeable {
		unchangeable, err := findUnchangeableProperties(updates, view)
		if err != nil {
			return nil, err
		}
		findings = append(findings, unchangeable...)
	}
	if len(findings) > 0 {
		verr := &ValidationError{Findings: findings}
		p.recordFindings(verr)
		return nil, verr
	}

	graph, split, err := Linearize(operations)
	if err != nil {
		return nil, err
	}
	if split > 0 {
		p.logger.Info().Int("split", split).Msg("Broke dependency cycles.")
		p.metrics.RecordCyclesBroken(split)
	}

	ordered, err := graph.Sort()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		ID:         uuid.New().String(),
		Operations: ordered,
		Split:      split,
		CreatedAt:  time.Now(),
		state:      PlanStateBuilt,
		graph:      graph,
		gateway:    p.gateway,
		logger:     p.logger,
		metrics:    p.metrics,
		observer:   p.observer,
		tracer:     p.tracer,
	}
	for op, count := range plan.Summary() {
		p.metrics.SetPlannedOperations(string(op), count)
	}

	if p.policy != nil {
		if err := p.policy.EvaluatePlan(ctx, plan); err != nil {
			return nil, err
		}
	}

	p.logger.Debug().
		Str("plan_id", plan.ID).
		Int("operations", len(plan.Operations)).
		Msg("Plan built.")
	return plan, nil
}

func (p *Planner) recordFindings(err error) {
	verr, ok := err.(*ValidationError)
	if !ok {
		return
	}
	for _, category := range findingCategories {
		if n := len(verr.ByCategory(category)); n > 0 {
			p.metrics.RecordFindings(string(category), n)
		}
	}
}
