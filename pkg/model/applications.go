package model

// AppPrototype is an application template.
type AppPrototype struct {
	Name    string            `json:"name" validate:"required"`
	Type    *string           `json:"type,omitempty"`
	Version *string           `json:"version,omitempty"`
	Folder  string            `json:"folder,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// Ref implements Entity.
func (a *AppPrototype) Ref() Reference {
	return NewReference(KindAppPrototype, "", a.Name)
}

// References implements Entity.
func (a *AppPrototype) References() []Reference {
	if a.Folder == "" {
		return []Reference{}
	}
	return []Reference{NewReference(KindFolder, "", a.Folder)}
}

// MissingProperties implements Entity.
func (a *AppPrototype) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(unset(a.Type), "type")
	p.addIf(unset(a.Version), "version")
	return p
}

// UnchangeableViolations implements Entity.
func (a *AppPrototype) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*AppPrototype)
	if !ok {
		return nil
	}
	var p properties
	p.addIf(changed(a.Type, l.Type), "type")
	p.addIf(changed(a.Version, l.Version), "version")
	return append(p, folderViolation(a.Folder, l.Folder)...)
}

// Bare implements Entity.
func (a *AppPrototype) Bare() (Entity, bool) {
	return nil, false
}

// Script is a routing strategy, schedule or other script object.
type Script struct {
	Scope
	Name  string  `json:"name" validate:"required"`
	Type  *string `json:"type,omitempty"`
	State *string `json:"state,omitempty"`
}

// Ref implements Entity.
func (s *Script) Ref() Reference {
	return NewReference(KindScript, s.Tenant, s.Name)
}

// References implements Entity.
func (s *Script) References() []Reference {
	return UniqueReferences(s.tenantRef(), s.folderRef())
}

// MissingProperties implements Entity.
func (s *Script) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(unset(s.Type), "type")
	return p
}

// UnchangeableViolations implements Entity.
func (s *Script) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Script)
	if !ok {
		return nil
	}
	var p properties
	p.addIf(changed(s.Type, l.Type), "type")
	return append(p, folderViolation(s.Folder, l.Folder)...)
}

// Bare implements Entity.
func (s *Script) Bare() (Entity, bool) {
	return nil, false
}
