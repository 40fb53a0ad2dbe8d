package engine

import (
	"fmt"
	"strings"

	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

// OperationType represents the type of operation to perform on an entity.
type OperationType string

const (
	// OperationCreate creates an entity absent from the remote system.
	OperationCreate OperationType = "create"

	// OperationUpdate updates an existing entity whose properties differ.
	OperationUpdate OperationType = "update"

	// OperationSkip leaves a converged entity untouched.
	OperationSkip OperationType = "skip"

	// OperationUpdateReference completes an entity created from its bare
	// variant by applying the full desired state.
	OperationUpdateReference OperationType = "update-reference"
)

// Validate checks if the operation type is valid.
func (o OperationType) Validate() error {
	switch o {
	case OperationCreate, OperationUpdate, OperationSkip, OperationUpdateReference:
		return nil
	default:
		return fmt.Errorf("invalid operation type: %s", o)
	}
}

// Symbol returns the symbol printed in front of the operation.
func (o OperationType) Symbol() string {
	switch o {
	case OperationCreate:
		return "+"
	case OperationUpdate, OperationUpdateReference:
		return "~"
	default:
		return "="
	}
}

// Label returns the upper-case label printed after the symbol.
func (o OperationType) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(o), "-", "_"))
}

// TallyAs returns the bucket the operation is counted in once applied.
// UpdateReference operations complete a creation and count as updates.
func (o OperationType) TallyAs() OperationType {
	if o == OperationUpdateReference {
		return OperationUpdate
	}
	return o
}

// Operation is a planned action bound to one entity.
type Operation struct {
	// Type is the operation type.
	Type OperationType

	// Entity is the desired state to apply. For a broken cycle it is the bare
	// variant on the Create and the original entity on the UpdateReference.
	Entity model.Entity

	// Remote is the live snapshot taken when the operation was built. It is
	// nil for Create and UpdateReference.
	Remote *gateway.RemoteEntity
}

// Ref returns the reference of the entity the operation applies to.
func (o *Operation) Ref() model.Reference {
	return o.Entity.Ref()
}

// String renders the operation as "create Switch [T1/S1]".
func (o *Operation) String() string {
	return fmt.Sprintf("%s %s", o.Type, o.Ref())
}

// FindingCategory classifies a validation finding.
type FindingCategory string

const (
	// FindingMissingProperties reports properties required at creation time
	// that are unset.
	FindingMissingProperties FindingCategory = "missing-properties"

	// FindingMissingDependencies reports references resolvable neither in
	// the document nor remotely.
	FindingMissingDependencies FindingCategory = "missing-dependencies"

	// FindingUnchangeableProperties reports properties an update would change
	// although the remote system forbids it.
	FindingUnchangeableProperties FindingCategory = "unchangeable-properties"
)

// findingCategories lists the categories in report order.
var findingCategories = []FindingCategory{
	FindingMissingProperties,
	FindingMissingDependencies,
	FindingUnchangeableProperties,
}

// FindingCategories returns the categories in report order.
func FindingCategories() []FindingCategory {
	out := make([]FindingCategory, len(findingCategories))
	copy(out, findingCategories)
	return out
}

// Title returns the heading printed above the findings of the category.
func (c FindingCategory) Title() string {
	switch c {
	case FindingMissingProperties:
		return "Missing properties:"
	case FindingMissingDependencies:
		return "Missing dependencies:"
	case FindingUnchangeableProperties:
		return "Unchangeable properties:"
	default:
		return string(c) + ":"
	}
}

// Describe returns a lower-case description used in error messages.
func (c FindingCategory) Describe() string {
	return strings.ReplaceAll(string(c), "-", " ")
}

// Finding is one validation defect of one entity.
type Finding struct {
	// Category classifies the defect.
	Category FindingCategory

	// Entity is the entity with the defect.
	Entity model.Entity

	// Properties lists the property names involved, for property findings.
	Properties []string

	// References lists the unresolvable references, for dependency findings.
	References []model.Reference
}

// Ref returns the reference of the entity with the defect.
func (f Finding) Ref() model.Reference {
	return f.Entity.Ref()
}

// PlanState is the lifecycle state of a Plan.
type PlanState string

const (
	// PlanStateBuilt is the state of a freshly constructed plan.
	PlanStateBuilt PlanState = "built"

	// PlanStatePrinted is the state of a plan shown to the operator.
	PlanStatePrinted PlanState = "printed"

	// PlanStateConfirmed is the state of a plan accepted for apply.
	PlanStateConfirmed PlanState = "confirmed"

	// PlanStateCancelled is the state of a plan declined by the operator.
	PlanStateCancelled PlanState = "cancelled"

	// PlanStateApplied is the state of a plan after apply, successful or not.
	PlanStateApplied PlanState = "applied"
)

// Tally counts applied operations by type. Only OperationCreate,
// OperationUpdate and OperationSkip are used as keys.
type Tally map[OperationType]int

// NewTally returns a tally with every bucket at zero.
func NewTally() Tally {
	return Tally{
		OperationCreate: 0,
		OperationUpdate: 0,
		OperationSkip:   0,
	}
}

// Add counts one applied operation.
func (t Tally) Add(op OperationType) {
	t[op.TallyAs()]++
}

// Created returns the number of created entities.
func (t Tally) Created() int { return t[OperationCreate] }

// Updated returns the number of updated entities.
func (t Tally) Updated() int { return t[OperationUpdate] }

// Skipped returns the number of skipped entities.
func (t Tally) Skipped() int { return t[OperationSkip] }

// String renders the completion summary.
func (t Tally) String() string {
	return fmt.Sprintf("Completed. %d %s created. %d %s updated. %d %s skipped.",
		t.Created(), pluralize("object", t.Created()),
		t.Updated(), pluralize("object", t.Updated()),
		t.Skipped(), pluralize("object", t.Skipped()))
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
