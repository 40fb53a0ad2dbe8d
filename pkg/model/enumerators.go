package model

// Enumerator is a business attribute definition.
type Enumerator struct {
	Scope
	Name        string  `json:"name" validate:"required"`
	DisplayName *string `json:"displayName,omitempty"`
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
	State       *string `json:"state,omitempty"`
}

// Ref implements Entity.
func (e *Enumerator) Ref() Reference {
	return NewReference(KindEnumerator, e.Tenant, e.Name)
}

// References implements Entity.
func (e *Enumerator) References() []Reference {
	return UniqueReferences(e.tenantRef(), e.folderRef())
}

// MissingProperties implements Entity.
func (e *Enumerator) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(unset(e.DisplayName), "displayName")
	p.addIf(unset(e.Type), "type")
	return p
}

// UnchangeableViolations implements Entity.
func (e *Enumerator) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Enumerator)
	if !ok {
		return nil
	}
	var p properties
	p.addIf(changed(e.Type, l.Type), "type")
	return append(p, folderViolation(e.Folder, l.Folder)...)
}

// Bare implements Entity.
func (e *Enumerator) Bare() (Entity, bool) {
	return nil, false
}

// EnumeratorValue is one value of an enumerator.
type EnumeratorValue struct {
	Scope
	Enumerator  string  `json:"enumerator" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	DisplayName *string `json:"displayName,omitempty"`
	Default     *bool   `json:"default,omitempty"`
	State       *string `json:"state,omitempty"`
}

// Ref implements Entity.
func (v *EnumeratorValue) Ref() Reference {
	return NewReference(KindEnumeratorValue, v.Tenant, v.Enumerator, v.Name)
}

// References implements Entity.
func (v *EnumeratorValue) References() []Reference {
	return UniqueReferences(
		v.tenantRef(),
		v.folderRef(),
		NewReference(KindEnumerator, v.Tenant, v.Enumerator),
	)
}

// MissingProperties implements Entity.
func (v *EnumeratorValue) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(unset(v.DisplayName), "displayName")
	return p
}

// UnchangeableViolations implements Entity.
func (v *EnumeratorValue) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*EnumeratorValue)
	if !ok {
		return nil
	}
	return folderViolation(v.Folder, l.Folder)
}

// Bare implements Entity.
func (v *EnumeratorValue) Bare() (Entity, bool) {
	return nil, false
}
