package model

import "fmt"

// KindInfo describes how a kind appears in a desired-state document.
type KindInfo struct {
	// Kind is the entity kind.
	Kind Kind

	// DocumentKey is the top-level document key holding entities of the kind.
	DocumentKey string

	// TenantScoped reports whether references to the kind carry a tenant.
	TenantScoped bool

	// New returns a zero entity of the kind.
	New func() Entity
}

// registry lists the kinds in export order. Kinds appear roughly in the
// order they are usually created; the operation graph still decides the
// order in which they are applied.
var registry = []KindInfo{
	{Kind: KindTenant, DocumentKey: "tenants", New: func() Entity { return &Tenant{} }},
	{Kind: KindFolder, DocumentKey: "folders", TenantScoped: true, New: func() Entity { return &Folder{} }},
	{Kind: KindAppPrototype, DocumentKey: "appPrototypes", New: func() Entity { return &AppPrototype{} }},
	{Kind: KindPhysicalSwitch, DocumentKey: "physicalSwitches", New: func() Entity { return &PhysicalSwitch{} }},
	{Kind: KindSwitch, DocumentKey: "switches", TenantScoped: true, New: func() Entity { return &Switch{} }},
	{Kind: KindDN, DocumentKey: "dns", TenantScoped: true, New: func() Entity { return &DN{} }},
	{Kind: KindSkill, DocumentKey: "skills", TenantScoped: true, New: func() Entity { return &Skill{} }},
	{Kind: KindScript, DocumentKey: "scripts", TenantScoped: true, New: func() Entity { return &Script{} }},
	{Kind: KindPerson, DocumentKey: "persons", TenantScoped: true, New: func() Entity { return &Person{} }},
	{Kind: KindPlace, DocumentKey: "places", TenantScoped: true, New: func() Entity { return &Place{} }},
	{Kind: KindAgentGroup, DocumentKey: "agentGroups", TenantScoped: true, New: func() Entity { return &AgentGroup{} }},
	{Kind: KindDNGroup, DocumentKey: "dnGroups", TenantScoped: true, New: func() Entity { return &DNGroup{} }},
	{Kind: KindPlaceGroup, DocumentKey: "placeGroups", TenantScoped: true, New: func() Entity { return &PlaceGroup{} }},
	{Kind: KindEnumerator, DocumentKey: "enumerators", TenantScoped: true, New: func() Entity { return &Enumerator{} }},
	{Kind: KindEnumeratorValue, DocumentKey: "enumeratorValues", TenantScoped: true, New: func() Entity { return &EnumeratorValue{} }},
}

// Kinds returns all known kinds in registry order.
func Kinds() []KindInfo {
	out := make([]KindInfo, len(registry))
	copy(out, registry)
	return out
}

// LookupKind returns the descriptor of a kind.
func LookupKind(kind Kind) (KindInfo, bool) {
	for _, info := range registry {
		if info.Kind == kind {
			return info, true
		}
	}
	return KindInfo{}, false
}

// LookupDocumentKey returns the descriptor of the kind stored under a
// top-level document key.
func LookupDocumentKey(key string) (KindInfo, bool) {
	for _, info := range registry {
		if info.DocumentKey == key {
			return info, true
		}
	}
	return KindInfo{}, false
}

// ParseKind converts a kind name or document key into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, info := range registry {
		if string(info.Kind) == s || info.DocumentKey == s {
			return info.Kind, nil
		}
	}
	return "", fmt.Errorf("unknown kind: %s", s)
}

// New returns a zero entity of kind.
func New(kind Kind) (Entity, error) {
	info, ok := LookupKind(kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind: %s", kind)
	}
	return info.New(), nil
}
