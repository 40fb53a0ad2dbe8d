package model

// Entity is a desired-state configuration object.
//
// Each concrete kind decides which of its properties are references to other
// entities, which properties must be set when the entity is created, which
// properties cannot change once the entity exists remotely, and whether it
// can be split into a bare variant to break a dependency cycle.
type Entity interface {
	// Ref returns the identity of the entity.
	Ref() Reference

	// References returns the sorted, de-duplicated set of references this
	// entity points to, including nested objects and list elements.
	References() []Reference

	// MissingProperties returns the names of the properties required at
	// creation time that are unset.
	MissingProperties(cc CheckContext) []string

	// UnchangeableViolations returns the names of the properties whose
	// desired value differs from a live value that cannot be changed once
	// the entity exists. live has the same concrete type as the receiver.
	UnchangeableViolations(live Entity) []string

	// Bare returns a copy of the entity with its cycle-causing references
	// cleared. The copy has the same Ref. It returns false when the kind
	// cannot be split.
	Bare() (Entity, bool)
}

// CheckContext is the read-only context given to MissingProperties.
type CheckContext struct {
	// Document is the document being validated.
	Document *Document

	// Exists reports whether a reference exists in the remote system. It is
	// nil when no remote lookup is available.
	Exists func(Reference) bool
}

// Resolvable reports whether ref is defined in the document or remotely.
func (cc CheckContext) Resolvable(ref Reference) bool {
	if cc.Document != nil && cc.Document.Has(ref) {
		return true
	}
	return cc.Exists != nil && cc.Exists(ref)
}

// Scope holds the properties shared by tenant-scoped entities.
type Scope struct {
	Tenant string `json:"tenant" validate:"required"`
	Folder string `json:"folder,omitempty"`
}

func (s Scope) tenantRef() Reference {
	return NewReference(KindTenant, "", s.Tenant)
}

func (s Scope) folderRef() Reference {
	if s.Folder == "" {
		return Reference{}
	}
	return NewReference(KindFolder, s.Tenant, s.Folder)
}

// folderViolation applies the rule common to every kind: a folder set on the
// live object cannot be changed by an update.
func folderViolation(desired, live string) []string {
	if live != "" && desired != "" && desired != live {
		return []string{"folder"}
	}
	return nil
}

// changed reports whether a desired value is set and differs from a live
// value that is also set.
func changed(desired, live *string) bool {
	return desired != nil && live != nil && *desired != *live
}

func unset(value *string) bool {
	return value == nil || *value == ""
}

// properties accumulates property names in the order they are checked.
type properties []string

func (p *properties) addIf(cond bool, name string) {
	if cond {
		*p = append(*p, name)
	}
}
