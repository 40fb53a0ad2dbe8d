package model

// GroupInfo holds the properties shared by DN and place groups.
type GroupInfo struct {
	Name     string   `json:"name" validate:"required"`
	Managers []string `json:"managers,omitempty"`
	RouteDNs []DNKey  `json:"routeDNs,omitempty" validate:"dive"`
	State    *string  `json:"state,omitempty"`
}

func (g GroupInfo) references(tenant string) []Reference {
	refs := make([]Reference, 0, len(g.Managers)+len(g.RouteDNs))
	for _, manager := range g.Managers {
		refs = append(refs, NewReference(KindPerson, tenant, manager))
	}
	for _, dn := range g.RouteDNs {
		refs = append(refs, dn.ref(tenant))
	}
	return refs
}

// DNGroupMember is a DN that belongs to a group.
type DNGroupMember struct {
	DN     DNKey `json:"dn"`
	Trunks *int  `json:"trunks,omitempty"`
}

// DNGroup groups DNs, typically the queues or routing points of a service.
type DNGroup struct {
	Scope
	GroupInfo
	DNs  []DNGroupMember `json:"dns,omitempty" validate:"dive"`
	Type *string         `json:"type,omitempty"`
}

// Ref implements Entity.
func (g *DNGroup) Ref() Reference {
	return NewReference(KindDNGroup, g.Tenant, g.Name)
}

// References implements Entity.
func (g *DNGroup) References() []Reference {
	refs := append([]Reference{g.tenantRef(), g.folderRef()}, g.references(g.Tenant)...)
	for _, member := range g.DNs {
		refs = append(refs, member.DN.ref(g.Tenant))
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (g *DNGroup) MissingProperties(_ CheckContext) []string {
	var p properties
	p.addIf(unset(g.Type), "type")
	return p
}

// UnchangeableViolations implements Entity.
func (g *DNGroup) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*DNGroup)
	if !ok {
		return nil
	}
	var p properties
	p.addIf(changed(g.Type, l.Type), "type")
	return append(p, folderViolation(g.Folder, l.Folder)...)
}

// Bare implements Entity. Members, managers and route DNs are deferred.
func (g *DNGroup) Bare() (Entity, bool) {
	return &DNGroup{
		Scope:     Scope{Tenant: g.Tenant},
		GroupInfo: GroupInfo{Name: g.Name},
		Type:      g.Type,
	}, true
}

// PlaceGroup groups places.
type PlaceGroup struct {
	Scope
	GroupInfo
	Places []string `json:"places,omitempty"`
}

// Ref implements Entity.
func (g *PlaceGroup) Ref() Reference {
	return NewReference(KindPlaceGroup, g.Tenant, g.Name)
}

// References implements Entity.
func (g *PlaceGroup) References() []Reference {
	refs := append([]Reference{g.tenantRef(), g.folderRef()}, g.references(g.Tenant)...)
	for _, place := range g.Places {
		refs = append(refs, NewReference(KindPlace, g.Tenant, place))
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (g *PlaceGroup) MissingProperties(_ CheckContext) []string {
	return nil
}

// UnchangeableViolations implements Entity.
func (g *PlaceGroup) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*PlaceGroup)
	if !ok {
		return nil
	}
	return folderViolation(g.Folder, l.Folder)
}

// Bare implements Entity.
func (g *PlaceGroup) Bare() (Entity, bool) {
	return &PlaceGroup{Scope: Scope{Tenant: g.Tenant}, GroupInfo: GroupInfo{Name: g.Name}}, true
}
