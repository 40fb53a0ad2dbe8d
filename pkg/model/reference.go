package model

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the type of a configuration entity.
type Kind string

const (
	KindTenant          Kind = "Tenant"
	KindFolder          Kind = "Folder"
	KindAppPrototype    Kind = "AppPrototype"
	KindPhysicalSwitch  Kind = "PhysicalSwitch"
	KindSwitch          Kind = "Switch"
	KindDN              Kind = "DN"
	KindSkill           Kind = "Skill"
	KindScript          Kind = "Script"
	KindPerson          Kind = "Person"
	KindPlace           Kind = "Place"
	KindAgentGroup      Kind = "AgentGroup"
	KindDNGroup         Kind = "DNGroup"
	KindPlaceGroup      Kind = "PlaceGroup"
	KindEnumerator      Kind = "Enumerator"
	KindEnumeratorValue Kind = "EnumeratorValue"
)

// keySeparator joins the parts of a composite key.
const keySeparator = "/"

// keyEscaper escapes the separator inside the parts of a composite key so
// that distinct parts never join to the same key.
var keyEscaper = strings.NewReplacer("%", "%25", keySeparator, "%2F")

// Reference is the identity of an entity: its kind, the tenant it is scoped
// to (empty for tenant-less kinds) and its natural key.
//
// Reference is a comparable value and is used directly as a map key and as
// graph node identity.
type Reference struct {
	Kind   Kind   `json:"kind"`
	Tenant string `json:"tenant,omitempty"`
	Key    string `json:"key"`
}

// NewReference creates a reference. Composite keys are joined in order.
func NewReference(kind Kind, tenant string, key ...string) Reference {
	return Reference{
		Kind:   kind,
		Tenant: tenant,
		Key:    JoinKey(key...),
	}
}

// JoinKey builds a deterministic composite key. A single part is used as
// is; parts of a composite key have the separator and "%" escaped.
func JoinKey(parts ...string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = keyEscaper.Replace(part)
	}
	return strings.Join(escaped, keySeparator)
}

// String renders the reference as "Kind [tenant/key]", or "Kind [key]" for
// tenant-less references.
func (r Reference) String() string {
	if r.Tenant == "" {
		return fmt.Sprintf("%s [%s]", r.Kind, r.Key)
	}
	return fmt.Sprintf("%s [%s/%s]", r.Kind, r.Tenant, r.Key)
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r == Reference{}
}

// Less orders references by kind, tenant and key.
func (r Reference) Less(other Reference) bool {
	if r.Kind != other.Kind {
		return r.Kind < other.Kind
	}
	if r.Tenant != other.Tenant {
		return r.Tenant < other.Tenant
	}
	return r.Key < other.Key
}

// SortReferences sorts refs in place.
func SortReferences(refs []Reference) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
}

// UniqueReferences returns the sorted set of non-zero references in refs.
func UniqueReferences(refs ...Reference) []Reference {
	seen := make(map[Reference]struct{}, len(refs))
	out := make([]Reference, 0, len(refs))
	for _, ref := range refs {
		if ref.IsZero() || ref.Key == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	SortReferences(out)
	return out
}

// FormatReferences renders refs as a comma separated list.
func FormatReferences(refs []Reference) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = ref.String()
	}
	return strings.Join(parts, ", ")
}
