package model

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func sampleEntities() []Entity {
	return []Entity{
		&Tenant{Name: "T1", ParentTenant: "Environment", Folder: "Tenants"},
		&Folder{Tenant: "T1", Name: "Agents", Parent: "Persons", Type: strPtr("person")},
		&AppPrototype{Name: "TServer", Type: strPtr("tServer"), Version: strPtr("8.1")},
		&PhysicalSwitch{Name: "PS1", Type: strPtr("sipSwitch")},
		&Switch{
			Scope:          Scope{Tenant: "T1", Folder: "Switches"},
			Name:           "S1",
			PhysicalSwitch: "PS1",
			SwitchAccessCodes: []SwitchAccessCode{
				{Switch: "S2", AccessCode: "9"},
			},
		},
		&DN{
			Scope:          Scope{Tenant: "T1"},
			DNKey:          DNKey{Switch: "S1", Number: "1000", Type: "extension"},
			RouteType:      strPtr("default"),
			DestinationDNs: []DNKey{{Switch: "S1", Number: "2000", Type: "routingPoint"}},
		},
		&Skill{Scope: Scope{Tenant: "T1"}, Name: "French"},
		&Script{Scope: Scope{Tenant: "T1"}, Name: "Holidays", Type: strPtr("schedule")},
		&Person{
			Scope:      Scope{Tenant: "T1"},
			EmployeeID: "1001",
			UserName:   strPtr("jdoe"),
			AgentInfo: &AgentInfo{
				SkillLevels: []SkillLevel{{Skill: "French", Level: 5}},
				Places:      []string{"Place1"},
			},
		},
		&Place{Scope: Scope{Tenant: "T1"}, Name: "Place1", DNs: []DNKey{{Switch: "S1", Number: "1000", Type: "extension"}}},
		&AgentGroup{Scope: Scope{Tenant: "T1"}, Name: "Sales", Agents: []string{"1001"}, Managers: []string{"1002"}},
		&DNGroup{
			Scope:     Scope{Tenant: "T1"},
			GroupInfo: GroupInfo{Name: "Queues", Managers: []string{"1002"}},
			DNs:       []DNGroupMember{{DN: DNKey{Switch: "S1", Number: "3000", Type: "acdQueue"}}},
			Type:      strPtr("acdQueues"),
		},
		&PlaceGroup{Scope: Scope{Tenant: "T1"}, GroupInfo: GroupInfo{Name: "Floor1"}, Places: []string{"Place1"}},
		&Enumerator{Scope: Scope{Tenant: "T1"}, Name: "Language", DisplayName: strPtr("Language"), Type: strPtr("interaction")},
		&EnumeratorValue{Scope: Scope{Tenant: "T1"}, Enumerator: "Language", Name: "fr", DisplayName: strPtr("French")},
	}
}

func TestEntity_BarePreservesReference(t *testing.T) {
	for _, e := range sampleEntities() {
		bare, ok := e.Bare()
		if !ok {
			continue
		}
		if bare.Ref() != e.Ref() {
			t.Errorf("Expected bare variant of %s to keep its reference, got: %s", e.Ref(), bare.Ref())
		}
		if len(bare.References()) > len(e.References()) {
			t.Errorf("Expected bare variant of %s to have fewer references, got: %v", e.Ref(), bare.References())
		}
	}
}

func TestSwitch_References(t *testing.T) {
	s := &Switch{
		Scope:          Scope{Tenant: "T1", Folder: "Switches"},
		Name:           "S1",
		PhysicalSwitch: "PS1",
		SwitchAccessCodes: []SwitchAccessCode{
			{Switch: "S2"},
			{Switch: "S3"},
			{Switch: "S2"},
		},
	}

	want := []Reference{
		NewReference(KindFolder, "T1", "Switches"),
		NewReference(KindPhysicalSwitch, "", "PS1"),
		NewReference(KindSwitch, "T1", "S2"),
		NewReference(KindSwitch, "T1", "S3"),
		NewReference(KindTenant, "", "T1"),
	}
	if got := s.References(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got: %v", want, got)
	}

	bare, ok := s.Bare()
	if !ok {
		t.Fatal("Expected switch to have a bare variant")
	}
	for _, ref := range bare.References() {
		if ref.Kind == KindSwitch {
			t.Errorf("Expected bare switch to drop switch references, got: %s", ref)
		}
	}
}

func TestEntity_MissingProperties(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   []string
	}{
		{name: "physical switch without type", entity: &PhysicalSwitch{Name: "PS1"}, want: []string{"type"}},
		{name: "switch without physical switch", entity: &Switch{Scope: Scope{Tenant: "T1"}, Name: "S1"}, want: []string{"physicalSwitch"}},
		{name: "person without user name", entity: &Person{Scope: Scope{Tenant: "T1"}, EmployeeID: "1"}, want: []string{"userName"}},
		{name: "dn without route type", entity: &DN{Scope: Scope{Tenant: "T1"}, DNKey: DNKey{Switch: "S1", Number: "1", Type: "extension"}}, want: []string{"routeType"}},
		{name: "enumerator", entity: &Enumerator{Scope: Scope{Tenant: "T1"}, Name: "E"}, want: []string{"displayName", "type"}},
		{name: "app prototype", entity: &AppPrototype{Name: "A", Version: strPtr("")}, want: []string{"type", "version"}},
		{name: "dn group without type", entity: &DNGroup{Scope: Scope{Tenant: "T1"}, GroupInfo: GroupInfo{Name: "G"}}, want: []string{"type"}},
		{name: "complete place group", entity: &PlaceGroup{Scope: Scope{Tenant: "T1"}, GroupInfo: GroupInfo{Name: "G"}}, want: nil},
		{name: "complete skill", entity: &Skill{Scope: Scope{Tenant: "T1"}, Name: "French"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.entity.MissingProperties(CheckContext{})
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got: %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got: %v", tt.want, got)
				}
			}
		})
	}
}

func TestEntity_UnchangeableViolations(t *testing.T) {
	tests := []struct {
		name    string
		desired Entity
		live    Entity
		want    []string
	}{
		{
			name:    "physical switch type changed",
			desired: &PhysicalSwitch{Name: "PS1", Type: strPtr("sipSwitch")},
			live:    &PhysicalSwitch{Name: "PS1", Type: strPtr("ciscoCM")},
			want:    []string{"type"},
		},
		{
			name:    "switch moved to another physical switch and folder",
			desired: &Switch{Scope: Scope{Tenant: "T1", Folder: "B"}, Name: "S1", PhysicalSwitch: "PS2"},
			live:    &Switch{Scope: Scope{Tenant: "T1", Folder: "A"}, Name: "S1", PhysicalSwitch: "PS1"},
			want:    []string{"physicalSwitch", "folder"},
		},
		{
			name:    "folder set on an object without one",
			desired: &Skill{Scope: Scope{Tenant: "T1", Folder: "Skills"}, Name: "French"},
			live:    &Skill{Scope: Scope{Tenant: "T1"}, Name: "French"},
			want:    nil,
		},
		{
			name:    "unset desired type",
			desired: &Script{Scope: Scope{Tenant: "T1"}, Name: "S"},
			live:    &Script{Scope: Scope{Tenant: "T1"}, Name: "S", Type: strPtr("schedule")},
			want:    nil,
		},
		{
			name:    "app prototype version changed",
			desired: &AppPrototype{Name: "A", Type: strPtr("tServer"), Version: strPtr("8.5")},
			live:    &AppPrototype{Name: "A", Type: strPtr("tServer"), Version: strPtr("8.1")},
			want:    []string{"version"},
		},
		{
			name:    "dn group type and folder changed",
			desired: &DNGroup{Scope: Scope{Tenant: "T1", Folder: "B"}, GroupInfo: GroupInfo{Name: "G"}, Type: strPtr("acdQueues")},
			live:    &DNGroup{Scope: Scope{Tenant: "T1", Folder: "A"}, GroupInfo: GroupInfo{Name: "G"}, Type: strPtr("routingPoints")},
			want:    []string{"type", "folder"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.desired.UnchangeableViolations(tt.live)
			if !reflect.DeepEqual([]string(got), tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("Expected %v, got: %v", tt.want, got)
			}
		})
	}
}

func TestGroups_References(t *testing.T) {
	route := DNKey{Switch: "S1", Number: "4000", Type: "routingPoint"}
	queue := DNKey{Switch: "S1", Number: "3000", Type: "acdQueue"}

	dns := &DNGroup{
		Scope:     Scope{Tenant: "T1"},
		GroupInfo: GroupInfo{Name: "Queues", Managers: []string{"1002"}, RouteDNs: []DNKey{route}},
		DNs:       []DNGroupMember{{DN: queue}, {DN: queue}},
		Type:      strPtr("acdQueues"),
	}
	want := UniqueReferences(
		NewReference(KindTenant, "", "T1"),
		NewReference(KindPerson, "T1", "1002"),
		route.ref("T1"),
		queue.ref("T1"),
	)
	if got := dns.References(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got: %v", want, got)
	}

	places := &PlaceGroup{Scope: Scope{Tenant: "T1", Folder: "Groups"}, GroupInfo: GroupInfo{Name: "Floor1"}, Places: []string{"P1", "P2"}}
	want = UniqueReferences(
		NewReference(KindTenant, "", "T1"),
		NewReference(KindFolder, "T1", "Groups"),
		NewReference(KindPlace, "T1", "P1"),
		NewReference(KindPlace, "T1", "P2"),
	)
	if got := places.References(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got: %v", want, got)
	}

	bare, _ := dns.Bare()
	for _, ref := range bare.References() {
		if ref.Kind != KindTenant {
			t.Errorf("Expected bare dn group to reference only its tenant, got: %s", ref)
		}
	}
}
