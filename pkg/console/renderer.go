package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/model"
	"github.com/openfroyo/confsync/pkg/policy"
)

// Layout of nested listings.
const (
	Margin          = "  "
	ReferencePrefix = Margin + "- "
	ElementPrefix   = Margin + Margin + "- "
)

// Renderer writes plans, findings and outcomes to the operator. It
// implements engine.Printer.
type Renderer struct {
	out    io.Writer
	styles styles

	// Detailed adds the desired state of every non-skip operation.
	Detailed bool
}

var _ engine.Printer = (*Renderer)(nil)

// Option configures a Renderer.
type Option func(*Renderer)

// WithDetails prints the desired state below each operation.
func WithDetails(detailed bool) Option {
	return func(r *Renderer) {
		r.Detailed = detailed
	}
}

// WithStyling forces styling on or off. By default it is on for terminals.
func WithStyling(enabled bool) Option {
	return func(r *Renderer) {
		r.styles.enabled = enabled
	}
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		out:    out,
		styles: newStyles(out, IsTerminal(out)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PrintOperation implements engine.Printer: "+ CREATE Switch [T1/S1]",
// followed by the desired state when detailed.
func (r *Renderer) PrintOperation(w io.Writer, op *engine.Operation) error {
	style := r.styles.operation(op.Type)
	line := fmt.Sprintf("%s %s %s",
		r.styles.render(style, op.Type.Symbol()),
		r.styles.render(style, op.Type.Label()),
		op.Ref())
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if !r.Detailed || op.Type == engine.OperationSkip {
		return nil
	}

	data, err := json.MarshalIndent(op.Entity, Margin, Margin)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, Margin+r.styles.render(r.styles.muted, string(data)))
	return err
}

// Plan prints every operation of plan, moving it to the printed state.
func (r *Renderer) Plan(plan *engine.Plan) error {
	return plan.Print(r.out, r)
}

// Line prints a plain message.
func (r *Renderer) Line(msg string) {
	fmt.Fprintln(r.out, msg)
}

// Completed prints the tally of an apply.
func (r *Renderer) Completed(tally engine.Tally) {
	fmt.Fprintln(r.out, r.styles.render(r.styles.heading, tally.String()))
}

// Error prints err. Validation findings, cycles and policy denials are
// listed with the nested layout.
func (r *Renderer) Error(err error) {
	fmt.Fprint(r.out, r.FormatError(err))
}

// FormatError renders err the way Error prints it.
func (r *Renderer) FormatError(err error) string {
	var b strings.Builder

	var verr *engine.ValidationError
	var cerr *engine.CycleError
	var denied *policy.DeniedError
	switch {
	case errors.As(err, &verr):
		b.WriteString(r.styles.render(r.styles.err, "Validation failed."))
		b.WriteString("\n")
		r.writeFindings(&b, verr)
	case errors.As(err, &cerr):
		b.WriteString(r.styles.render(r.styles.err, "Unbreakable dependency cycles:"))
		b.WriteString("\n")
		for _, cycle := range cerr.Cycles {
			b.WriteString(ReferencePrefix + "cycle:\n")
			writeReferences(&b, cycle)
		}
	case errors.As(err, &denied):
		b.WriteString(r.styles.render(r.styles.err, "Plan denied by policy:"))
		b.WriteString("\n")
		for _, v := range denied.Violations {
			b.WriteString(ReferencePrefix + v.String() + "\n")
		}
	default:
		b.WriteString(r.styles.render(r.styles.err, "Error: "))
		b.WriteString(err.Error())
		b.WriteString("\n")
	}

	return b.String()
}

// writeFindings lists findings grouped by category, in category order.
func (r *Renderer) writeFindings(b *strings.Builder, verr *engine.ValidationError) {
	for _, category := range engine.FindingCategories() {
		findings := verr.ByCategory(category)
		if len(findings) == 0 {
			continue
		}
		b.WriteString(r.styles.render(r.styles.heading, category.Title()))
		b.WriteString("\n")
		for _, f := range findings {
			b.WriteString(ReferencePrefix + f.Ref().String() + ":\n")
			if category == engine.FindingMissingDependencies {
				writeReferences(b, f.References)
				continue
			}
			for _, p := range f.Properties {
				b.WriteString(ElementPrefix + p + "\n")
			}
		}
	}
}

func writeReferences(b *strings.Builder, refs []model.Reference) {
	for _, ref := range refs {
		b.WriteString(ElementPrefix + ref.String() + "\n")
	}
}
