package model

import (
	"testing"
)

func TestReference_String(t *testing.T) {
	tests := []struct {
		name string
		ref  Reference
		want string
	}{
		{
			name: "tenant-less",
			ref:  NewReference(KindTenant, "", "T1"),
			want: "Tenant [T1]",
		},
		{
			name: "tenant-scoped",
			ref:  NewReference(KindSwitch, "T1", "S1"),
			want: "Switch [T1/S1]",
		},
		{
			name: "composite key",
			ref:  NewReference(KindDN, "T1", "S1", "1000", "Extension"),
			want: "DN [T1/S1/1000/Extension]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.String(); got != tt.want {
				t.Errorf("Expected %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestReference_Equality(t *testing.T) {
	a := NewReference(KindSwitch, "T1", "S1")
	b := NewReference(KindSwitch, "T1", "S1")
	c := NewReference(KindSwitch, "T2", "S1")

	if a != b {
		t.Error("Expected references with the same kind, tenant and key to be equal")
	}
	if a == c {
		t.Error("Expected references with different tenants to differ")
	}

	m := map[Reference]int{a: 1}
	if m[b] != 1 {
		t.Error("Expected equal references to address the same map entry")
	}
}

func TestJoinKey_Unambiguous(t *testing.T) {
	a := &DN{Scope: Scope{Tenant: "T1"}, DNKey: DNKey{Switch: "a/b", Number: "c", Type: "X"}}
	b := &DN{Scope: Scope{Tenant: "T1"}, DNKey: DNKey{Switch: "a", Number: "b/c", Type: "X"}}

	if a.Ref() == b.Ref() {
		t.Fatalf("Expected distinct references, got: %s and %s", a.Ref(), b.Ref())
	}
	if got := a.Ref().String(); got != "DN [T1/a%2Fb/c/X]" {
		t.Errorf("Expected escaped separator, got: %q", got)
	}
	if JoinKey("100%", "x") == JoinKey("100%25", "x") {
		t.Error("Expected escaped percent signs to stay distinct")
	}
	if got := JoinKey("a/b"); got != "a/b" {
		t.Errorf("Expected single part unchanged, got: %q", got)
	}

	if _, err := NewDocument(a, b); err != nil {
		t.Fatalf("Expected no duplicate reference, got: %v", err)
	}
}

func TestUniqueReferences(t *testing.T) {
	s1 := NewReference(KindSwitch, "T1", "S1")
	s2 := NewReference(KindSwitch, "T1", "S2")
	tenant := NewReference(KindTenant, "", "T1")

	got := UniqueReferences(s2, tenant, s1, s2, Reference{}, NewReference(KindFolder, "T1", ""))

	want := []Reference{s1, s2, tenant}
	if len(got) != len(want) {
		t.Fatalf("Expected %d references, got: %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s at position %d, got: %s", want[i], i, got[i])
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, input := range []string{"Switch", "switches"} {
		kind, err := ParseKind(input)
		if err != nil {
			t.Fatalf("Expected %q to parse, got: %v", input, err)
		}
		if kind != KindSwitch {
			t.Errorf("Expected %s, got: %s", KindSwitch, kind)
		}
	}

	if _, err := ParseKind("gadgets"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}
