// Package engine reconciles a desired-state document with a remote
// configuration system.
//
// # Overview
//
// An import goes through the following phases:
//
//  1. Validate - Check the document against the remote state (Validator)
//  2. Plan - Classify every entity and order the operations (Planner)
//  3. Print - Show the plan to the operator (Plan.Print)
//  4. Confirm - Ask the operator to accept it (Plan.Confirm)
//  5. Apply - Write the changes one at a time (Plan.Apply)
//
// # Operations
//
// Every entity of the document becomes exactly one operation:
//
//   - Create: the entity is absent remotely
//   - Update: the entity exists and applying it would change something
//   - Skip: the entity exists and is already in the desired state
//
// When Creates reference each other in a cycle, an entity with a bare
// variant is split into a Create of the bare variant and an UpdateReference
// carrying the full desired state. The split happens once; a cycle that
// survives it is reported as a *CycleError.
//
// # Validation
//
// Findings fall in three categories, reported in this order:
//
//   - Missing properties: mandatory properties unset on an entity to create
//   - Missing dependencies: references resolvable neither in the document
//     nor remotely
//   - Unchangeable properties: properties an update would change although
//     the remote system forbids it
//
// # Error Classification
//
// Gateway failures are wrapped in *EngineError and classified:
//
//   - Transient: the remote system could not be reached
//   - Conflict: the remote state changed between plan and apply
//   - Permanent: the remote system rejected the operation
//
//	if IsConflict(err) {
//	    // Plan again
//	}
//
// # Example Usage
//
//	planner := engine.NewPlanner(gw, engine.WithLogger(logger))
//	plan, err := planner.Plan(ctx, doc)
//	if err != nil {
//	    return err
//	}
//	if err := plan.Print(os.Stdout, engine.PlainPrinter{}); err != nil {
//	    return err
//	}
//	if err := plan.Confirm(confirmer); err != nil {
//	    return err
//	}
//	tally, err := plan.Apply(ctx)
//
// # Thread Safety
//
// A Plan is driven by a single goroutine. The Planner holds no per-call
// state and may be shared.
package engine
