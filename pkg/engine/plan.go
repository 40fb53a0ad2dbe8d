package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/openfroyo/confsync/pkg/gateway"
)

// ConfirmPrompt is the question asked before a plan is applied.
const ConfirmPrompt = "Please confirm [y|n]: "

// Plan is an ordered list of operations moving the remote system to the
// desired state. A plan goes through Built, Printed, then Confirmed or
// Cancelled, then Applied; every transition happens at most once.
type Plan struct {
	// ID uniquely identifies the plan.
	ID string

	// Operations is the apply order.
	Operations []*Operation

	// Split is the number of entities split into a bare Create and an
	// UpdateReference to break dependency cycles.
	Split int

	// CreatedAt is when the plan was built.
	CreatedAt time.Time

	state    PlanState
	graph    *Graph
	gateway  gateway.Gateway
	logger   zerolog.Logger
	metrics  MetricsRecorder
	observer ApplyObserver
	tracer   trace.Tracer
}

// State returns the lifecycle state.
func (p *Plan) State() PlanState {
	return p.state
}

// Graph returns the acyclic dependency graph the plan was ordered from.
func (p *Plan) Graph() *Graph {
	return p.graph
}

// Summary counts the planned operations by type. UpdateReference operations
// are kept apart from updates.
func (p *Plan) Summary() map[OperationType]int {
	summary := map[OperationType]int{
		OperationCreate:          0,
		OperationUpdate:          0,
		OperationSkip:            0,
		OperationUpdateReference: 0,
	}
	for _, op := range p.Operations {
		summary[op.Type]++
	}
	return summary
}

// Changes reports whether applying the plan would write anything.
func (p *Plan) Changes() bool {
	for _, op := range p.Operations {
		if op.Type != OperationSkip {
			return true
		}
	}
	return false
}

// Print renders every operation in apply order. It may be called again on a
// printed plan, not after confirmation.
func (p *Plan) Print(w io.Writer, printer Printer) error {
	if p.state != PlanStateBuilt && p.state != PlanStatePrinted {
		return p.stateError("print")
	}
	for _, op := range p.Operations {
		if err := printer.PrintOperation(w, op); err != nil {
			return fmt.Errorf("failed to print plan: %w", err)
		}
	}
	p.state = PlanStatePrinted
	return nil
}

// Confirm asks the operator to accept the printed plan. A negative answer
// cancels the plan and returns ErrCancelled.
func (p *Plan) Confirm(confirmer Confirmer) error {
	if p.state != PlanStatePrinted {
		return p.stateError("confirm")
	}
	ok, err := confirmer.Confirm(ConfirmPrompt)
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		p.state = PlanStateCancelled
		p.logger.Info().Str("plan_id", p.ID).Msg("Import cancelled.")
		return ErrCancelled
	}
	p.state = PlanStateConfirmed
	return nil
}

// AutoConfirm accepts the plan without printing or asking.
func (p *Plan) AutoConfirm() error {
	if p.state != PlanStateBuilt && p.state != PlanStatePrinted {
		return p.stateError("auto-confirm")
	}
	p.state = PlanStateConfirmed
	return nil
}

// Apply performs the operations one at a time in plan order and stops at the
// first failure. The returned tally counts the operations applied before it;
// the failure is returned as an *ApplyError.
//
// Once started, apply is not interrupted by cancellation of ctx.
func (p *Plan) Apply(ctx context.Context) (Tally, error) {
	if p.state != PlanStateConfirmed {
		return nil, p.stateError("apply")
	}
	p.state = PlanStateApplied

	ctx, span := p.tracer.Start(ctx, "plan.apply", trace.WithAttributes(
		attribute.String("plan.id", p.ID),
		attribute.Int("plan.operations", len(p.Operations)),
	))
	defer span.End()

	applyCtx := context.WithoutCancel(ctx)
	start := time.Now()
	tally := NewTally()

	p.logger.Info().Str("plan_id", p.ID).Int("operations", len(p.Operations)).Msg("Applying plan.")

	for i, op := range p.Operations {
		if err := p.applyOne(applyCtx, i, op); err != nil {
			p.metrics.RecordApply("failed", time.Since(start))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return tally, &ApplyError{Operation: op, Position: i, Err: err}
		}
		tally.Add(op.Type)
	}

	p.metrics.RecordApply("succeeded", time.Since(start))
	span.SetStatus(codes.Ok, "")
	p.logger.Info().
		Str("plan_id", p.ID).
		Int("created", tally.Created()).
		Int("updated", tally.Updated()).
		Int("skipped", tally.Skipped()).
		Dur("duration", time.Since(start)).
		Msg("Plan applied.")
	return tally, nil
}

func (p *Plan) applyOne(ctx context.Context, position int, op *Operation) error {
	ctx, span := p.tracer.Start(ctx, "operation.apply", trace.WithAttributes(
		attribute.String("operation.type", string(op.Type)),
		attribute.String("operation.resource", op.Ref().String()),
		attribute.Int("operation.position", position),
	))
	defer span.End()

	started := time.Now()
	_, err := op.Apply(ctx, p.gateway)

	status := "succeeded"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error().Err(err).Str("resource", op.Ref().String()).Msg("Operation failed.")
	} else {
		p.logger.Debug().Str("operation", string(op.Type)).Str("resource", op.Ref().String()).Msg("Operation applied.")
	}
	p.metrics.RecordOperationApplied(string(op.Type), status, time.Since(started))

	if p.observer != nil {
		p.observer.OperationApplied(ctx, position, op, err)
	}
	return err
}

func (p *Plan) stateError(action string) error {
	return NewPermanentError(fmt.Sprintf("cannot %s a plan in state %s", action, p.state), nil).
		WithCode(ErrCodeInvalidState).
		WithDetail("plan_id", p.ID)
}

// PlainPrinter renders operations as "+ CREATE Switch [T1/S1]" without
// styling. With Detailed set the desired state follows as indented JSON.
type PlainPrinter struct {
	Detailed bool
}

// PrintOperation implements Printer.
func (pp PlainPrinter) PrintOperation(w io.Writer, op *Operation) error {
	if _, err := fmt.Fprintf(w, "%s %s %s\n", op.Type.Symbol(), op.Type.Label(), op.Ref()); err != nil {
		return err
	}
	if !pp.Detailed || op.Type == OperationSkip {
		return nil
	}
	data, err := json.MarshalIndent(op.Entity, "  ", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "  %s\n", data)
	return err
}
