package model

// Tenant is a tenant of the configuration system.
type Tenant struct {
	Name           string                       `json:"name" validate:"required"`
	ParentTenant   string                       `json:"parentTenant,omitempty"`
	Folder         string                       `json:"folder,omitempty"`
	State          *string                      `json:"state,omitempty"`
	UserProperties map[string]map[string]string `json:"userProperties,omitempty"`
}

// Ref implements Entity.
func (t *Tenant) Ref() Reference {
	return NewReference(KindTenant, "", t.Name)
}

// References implements Entity.
func (t *Tenant) References() []Reference {
	refs := []Reference{}
	if t.ParentTenant != "" {
		refs = append(refs, NewReference(KindTenant, "", t.ParentTenant))
	}
	if t.Folder != "" {
		refs = append(refs, NewReference(KindFolder, "", t.Folder))
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity. Tenants have no mandatory properties
// beyond their name.
func (t *Tenant) MissingProperties(_ CheckContext) []string {
	return nil
}

// UnchangeableViolations implements Entity.
func (t *Tenant) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Tenant)
	if !ok {
		return nil
	}
	return folderViolation(t.Folder, l.Folder)
}

// Bare implements Entity.
func (t *Tenant) Bare() (Entity, bool) {
	return &Tenant{Name: t.Name}, true
}

// Folder organizes configuration objects. Folders without a tenant hold
// tenant-less objects such as tenants and physical switches.
type Folder struct {
	Tenant string  `json:"tenant,omitempty"`
	Name   string  `json:"name" validate:"required"`
	Parent string  `json:"parent,omitempty"`
	Type   *string `json:"type,omitempty"`
}

// Ref implements Entity.
func (f *Folder) Ref() Reference {
	return NewReference(KindFolder, f.Tenant, f.Name)
}

// References implements Entity.
func (f *Folder) References() []Reference {
	refs := []Reference{}
	if f.Tenant != "" {
		refs = append(refs, NewReference(KindTenant, "", f.Tenant))
	}
	if f.Parent != "" {
		refs = append(refs, NewReference(KindFolder, f.Tenant, f.Parent))
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (f *Folder) MissingProperties(_ CheckContext) []string {
	return nil
}

// UnchangeableViolations implements Entity. A folder cannot be moved once
// created.
func (f *Folder) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Folder)
	if !ok {
		return nil
	}
	var p properties
	p.addIf(l.Parent != "" && f.Parent != "" && f.Parent != l.Parent, "parent")
	p.addIf(changed(f.Type, l.Type), "type")
	return p
}

// Bare implements Entity.
func (f *Folder) Bare() (Entity, bool) {
	return &Folder{Tenant: f.Tenant, Name: f.Name, Parent: f.Parent}, true
}
