package model

// PhysicalSwitch is a telephony switch independent of any tenant.
type PhysicalSwitch struct {
	Name   string  `json:"name" validate:"required"`
	Type   *string `json:"type,omitempty"`
	Folder string  `json:"folder,omitempty"`
}

// Ref implements Entity.
func (s *PhysicalSwitch) Ref() Reference {
	return NewReference(KindPhysicalSwitch, "", s.Name)
}

// References implements Entity.
func (s *PhysicalSwitch) References() []Reference {
	if s.Folder == "" {
		return []Reference{}
	}
	return []Reference{NewReference(KindFolder, "", s.Folder)}
}

// MissingProperties implements Entity.
func (s *PhysicalSwitch) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(unset(s.Type), "type")
	return p
}

// UnchangeableViolations implements Entity.
func (s *PhysicalSwitch) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*PhysicalSwitch)
	if !ok {
		return nil
	}
	var p properties
	p.addIf(changed(s.Type, l.Type), "type")
	return append(p, folderViolation(s.Folder, l.Folder)...)
}

// Bare implements Entity. A physical switch cannot be split.
func (s *PhysicalSwitch) Bare() (Entity, bool) {
	return nil, false
}

// SwitchAccessCode routes calls from a switch to another switch.
type SwitchAccessCode struct {
	Switch     string `json:"switch,omitempty"`
	AccessCode string `json:"accessCode,omitempty"`
	TargetType string `json:"targetType,omitempty"`
	RouteType  string `json:"routeType,omitempty"`
}

// Switch is a tenant's view of a physical switch.
type Switch struct {
	Scope
	Name              string             `json:"name" validate:"required"`
	PhysicalSwitch    string             `json:"physicalSwitch,omitempty"`
	LinkType          *string            `json:"linkType,omitempty"`
	DNRange           *string            `json:"dnRange,omitempty"`
	SwitchAccessCodes []SwitchAccessCode `json:"switchAccessCodes,omitempty"`
}

// Ref implements Entity.
func (s *Switch) Ref() Reference {
	return NewReference(KindSwitch, s.Tenant, s.Name)
}

// References implements Entity.
func (s *Switch) References() []Reference {
	refs := []Reference{s.tenantRef(), s.folderRef()}
	if s.PhysicalSwitch != "" {
		refs = append(refs, NewReference(KindPhysicalSwitch, "", s.PhysicalSwitch))
	}
	for _, code := range s.SwitchAccessCodes {
		if code.Switch != "" {
			refs = append(refs, NewReference(KindSwitch, s.Tenant, code.Switch))
		}
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (s *Switch) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(s.PhysicalSwitch == "", "physicalSwitch")
	return p
}

// UnchangeableViolations implements Entity.
func (s *Switch) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Switch)
	if !ok {
		return nil
	}
	var p properties
	p.addIf(l.PhysicalSwitch != "" && s.PhysicalSwitch != "" && s.PhysicalSwitch != l.PhysicalSwitch, "physicalSwitch")
	return append(p, folderViolation(s.Folder, l.Folder)...)
}

// Bare implements Entity. The access codes reference other switches and are
// deferred.
func (s *Switch) Bare() (Entity, bool) {
	return &Switch{
		Scope:          Scope{Tenant: s.Tenant},
		Name:           s.Name,
		PhysicalSwitch: s.PhysicalSwitch,
	}, true
}

// DNKey identifies a DN within a tenant.
type DNKey struct {
	Switch string `json:"switch" validate:"required"`
	Number string `json:"number" validate:"required"`
	Type   string `json:"type" validate:"required"`
}

func (k DNKey) ref(tenant string) Reference {
	return NewReference(KindDN, tenant, k.Switch, k.Number, k.Type)
}

// DN is a directory number configured on a switch.
type DN struct {
	Scope
	DNKey
	Name           *string `json:"name,omitempty"`
	RouteType      *string `json:"routeType,omitempty"`
	State          *string `json:"state,omitempty"`
	DestinationDNs []DNKey `json:"destinationDNs,omitempty" validate:"dive"`
}

// Ref implements Entity.
func (d *DN) Ref() Reference {
	return d.DNKey.ref(d.Tenant)
}

// References implements Entity.
func (d *DN) References() []Reference {
	refs := []Reference{d.tenantRef(), d.folderRef(), NewReference(KindSwitch, d.Tenant, d.Switch)}
	for _, dest := range d.DestinationDNs {
		refs = append(refs, dest.ref(d.Tenant))
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (d *DN) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(unset(d.RouteType), "routeType")
	return p
}

// UnchangeableViolations implements Entity.
func (d *DN) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*DN)
	if !ok {
		return nil
	}
	return folderViolation(d.Folder, l.Folder)
}

// Bare implements Entity. Destination DNs may point back at this DN and are
// deferred.
func (d *DN) Bare() (Entity, bool) {
	return &DN{
		Scope:     Scope{Tenant: d.Tenant},
		DNKey:     d.DNKey,
		RouteType: d.RouteType,
	}, true
}
