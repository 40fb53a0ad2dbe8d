package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/openfroyo/confsync/pkg/model"
)

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func refStrings(doc *model.Document) []string {
	out := make([]string, 0, doc.Len())
	for _, e := range doc.Entities() {
		out = append(out, e.Ref().String())
	}
	return out
}

func TestLoader_Parse_YAML(t *testing.T) {
	content := `
__metadata__:
  author: ops
switches:
  - tenant: T1
    name: S1
    physicalSwitch: P1
tenants:
  - name: T1
  - name: T2
    parentTenant: T1
`
	doc, err := ParseDocument([]byte(content), FormatYAML)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{"Switch [T1/S1]", "Tenant [T1]", "Tenant [T2]"}
	if got := refStrings(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected entities in document order %v, got %v", want, got)
	}
	if doc.Metadata["author"] != "ops" {
		t.Errorf("Expected metadata to be kept, got %v", doc.Metadata)
	}

	e, ok := doc.Lookup(model.NewReference(model.KindSwitch, "T1", "S1"))
	if !ok {
		t.Fatal("Expected switch to be indexed")
	}
	if e.(*model.Switch).PhysicalSwitch != "P1" {
		t.Errorf("Expected physicalSwitch P1, got %+v", e)
	}
}

func TestLoader_Parse_JSON(t *testing.T) {
	content := `{
  "dns": [
    {"tenant": "T1", "switch": "S1", "number": "1001", "type": "Extension", "routeType": "Default"}
  ],
  "physicalSwitches": [
    {"name": "P1", "type": "SIPSwitch"}
  ]
}`
	doc, err := ParseDocument([]byte(content), FormatJSON)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{"DN [T1/S1/1001/Extension]", "PhysicalSwitch [P1]"}
	if got := refStrings(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestLoader_Parse_UnquotedScalars(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
	}{
		{
			name:    "yaml",
			format:  FormatYAML,
			content: `dns:
  - tenant: T1
    switch: S1
    number: 5001
    type: Extension
    routeType: Default
    destinationDNs:
      - switch: S1
        number: 5002
        type: Extension
`,
		},
		{
			name:    "json",
			format:  FormatJSON,
			content: `{"dns": [{"tenant": "T1", "switch": "S1", "number": 5001, "type": "Extension", "routeType": "Default", "destinationDNs": [{"switch": "S1", "number": 5002, "type": "Extension"}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.content), tt.format)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}

			e, ok := doc.Lookup(model.NewReference(model.KindDN, "T1", "S1", "5001", "Extension"))
			if !ok {
				t.Fatalf("Expected DN 5001, got %v", refStrings(doc))
			}
			dn := e.(*model.DN)
			if len(dn.DestinationDNs) != 1 || dn.DestinationDNs[0].Number != "5002" {
				t.Errorf("Expected destination 5002, got %+v", dn.DestinationDNs)
			}
		})
	}
}

func TestLoader_Interpolation_NumericValue(t *testing.T) {
	content := "dns:\n  - tenant: T1\n    switch: S1\n    number: ${NUMBER}\n    type: Extension\n    routeType: Default\n"
	l := NewLoader(WithLookup(lookupFrom(map[string]string{"NUMBER": "7000"})))

	doc, err := l.Parse([]byte(content), FormatYAML)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !doc.Has(model.NewReference(model.KindDN, "T1", "S1", "7000", "Extension")) {
		t.Errorf("Expected DN 7000, got %v", refStrings(doc))
	}
}

func TestLoader_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
		wantErr string
	}{
		{
			name:    "invalid JSON",
			format:  FormatJSON,
			content: `{"tenants": [`,
			wantErr: "invalid JSON document",
		},
		{
			name:    "top level list",
			format:  FormatYAML,
			content: "- name: T1\n",
			wantErr: "document must be a mapping",
		},
		{
			name:    "unknown section",
			format:  FormatYAML,
			content: "tenants: []\nrouters:\n  - name: R1\n",
			wantErr: "line 2: routers: unknown section",
		},
		{
			name:    "section not a list",
			format:  FormatYAML,
			content: "tenants:\n  name: T1\n",
			wantErr: "expected a list of entities",
		},
		{
			name:    "unknown property",
			format:  FormatYAML,
			content: "tenants:\n  - name: T1\n    colour: blue\n",
			wantErr: `unknown field "colour"`,
		},
		{
			name:    "missing key property",
			format:  FormatYAML,
			content: "switches:\n  - name: S1\n",
			wantErr: `tenant failed "required"`,
		},
		{
			name:    "invalid email",
			format:  FormatYAML,
			content: "persons:\n  - tenant: T1\n    employeeId: E1\n    emailAddress: nope\n",
			wantErr: `emailAddress failed "email"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.content), tt.format)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoader_Parse_DuplicateReference(t *testing.T) {
	content := "tenants:\n  - name: T1\n  - name: T1\n"

	_, err := ParseDocument([]byte(content), FormatYAML)

	var dup *model.DuplicateReferenceError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateReferenceError, got: %v", err)
	}
}

func TestLoader_Parse_Empty(t *testing.T) {
	doc, err := ParseDocument(nil, FormatYAML)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc.Len() != 0 {
		t.Errorf("Expected empty document, got %d entities", doc.Len())
	}
}

func TestLoader_Interpolation(t *testing.T) {
	loader := NewLoader(WithLookup(lookupFrom(map[string]string{"TENANT": "Acme"})))

	doc, err := loader.Parse([]byte("tenants:\n  - name: ${TENANT}\n"), FormatYAML)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := refStrings(doc); !reflect.DeepEqual(got, []string{"Tenant [Acme]"}) {
		t.Errorf("Expected interpolated tenant, got %v", got)
	}
}

func TestLoader_Interpolation_Undefined(t *testing.T) {
	loader := NewLoader(WithLookup(lookupFrom(nil)))

	_, err := loader.Parse([]byte("tenants:\n  - name: ${B}\n  - name: ${A}\n  - name: ${B}x\n"), FormatYAML)

	var undefined *UndefinedVariableError
	if !errors.As(err, &undefined) {
		t.Fatalf("Expected UndefinedVariableError, got: %v", err)
	}
	if !reflect.DeepEqual(undefined.Names, []string{"A", "B"}) {
		t.Errorf("Expected [A B], got %v", undefined.Names)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desired.yml")
	if err := os.WriteFile(path, []byte("tenants:\n  - name: T1\n"), 0o600); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc.Len() != 1 {
		t.Errorf("Expected 1 entity, got %d", doc.Len())
	}

	if _, err := LoadDocument(filepath.Join(dir, "desired.txt")); err == nil {
		t.Error("Expected error for unsupported extension")
	}
	if _, err := LoadDocument(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil {
			t.Errorf("FormatFromPath(%s) returned error: %v", path, err)
		}
		if got != want {
			t.Errorf("FormatFromPath(%s) = %s, want %s", path, got, want)
		}
	}
}
