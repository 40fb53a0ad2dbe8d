// Package policy provides Open Policy Agent (OPA) integration for confsync.
//
// An Engine compiles Rego policies and evaluates them against a built plan
// before the operator is asked to confirm it. It implements
// engine.PolicyGate, so it is registered on the planner with
// engine.WithPolicy.
//
// # Input
//
// Every policy sees the same input document:
//
//	{
//	  "plan": {
//	    "id": "...",
//	    "operations": [
//	      {"kind": "Folder", "operation": "create", "reference": "Folder [T1/F1]", "tenant": "T1", "key": "F1"}
//	    ],
//	    "tenants": ["T1"]
//	  }
//	}
//
// "tenants" lists tenants that are part of the plan or, when the engine has
// a gateway, known to exist remotely.
//
// # Writing policies
//
// A policy is a Rego module whose package defines a deny set. Elements are
// either strings or objects with "message", "reference" and "severity"
// keys:
//
//	# Only folders and tenants may be created.
//	# severity: warning
//	package custom.kinds
//
//	deny contains violation if {
//	    some op in input.plan.operations
//	    op.operation == "create"
//	    not op.kind in {"Tenant", "Folder"}
//	    violation := {"message": "unexpected kind", "reference": op.reference}
//	}
//
// The leading comment block becomes the description; a "severity:" line sets
// the default severity, which is error otherwise. Violations of severity
// error or critical deny the plan with a *DeniedError. Lower severities are
// logged as warnings.
//
// Policies are loaded from .rego files and from JSON definitions holding
// the Policy fields. Directories are walked recursively.
//
// # Built-in policies
//
//   - confsync.builtin.tenant (enabled): denies creating an entity in a
//     tenant that is neither planned nor known.
//   - confsync.builtin.update-notice (disabled): warns about every update
//     of a live entity.
package policy
