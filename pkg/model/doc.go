// Package model defines the desired-state configuration entities reconciled
// by confsync.
//
// Every entity is identified by a Reference made of its kind, the tenant it
// belongs to and its natural key. Entities point at each other by natural
// key; References() resolves those fields into References, which is what the
// validator and the operation graph work with.
//
// # Kinds
//
// The supported kinds and their document keys are listed by Kinds(). Each
// kind implements the Entity interface:
//
//   - MissingProperties lists the properties required to create the entity.
//   - UnchangeableViolations lists the properties an update would change but
//     the remote system does not allow to change.
//   - Bare returns a reduced copy used to break dependency cycles. The copy
//     keeps the original Reference.
//
// # Documents
//
// A Document keeps entities in document order and rejects two entities with
// the same Reference:
//
//	doc, err := model.NewDocument(
//		&model.Tenant{Name: "T1"},
//		&model.Switch{Scope: model.Scope{Tenant: "T1"}, Name: "S1", PhysicalSwitch: "PS1"},
//	)
//
// # Comparing with live state
//
// Merge overlays the properties set on a desired entity onto its live
// counterpart, and Equal compares the canonical encodings of two entities.
// An entity is converged when Equal(Merge(desired, live), live) holds.
package model
