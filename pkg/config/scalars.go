package config

import (
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// coerceScalars retags plain int, float and bool scalars of node as strings
// wherever the matching field of t is a string, so that natural keys such as
// DN numbers may be written unquoted. Fields are matched by their JSON name.
func coerceScalars(node *yaml.Node, t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if t.Kind() == reflect.String {
			retagAsString(node)
		}

	case yaml.SequenceNode:
		if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			for _, item := range node.Content {
				coerceScalars(item, t.Elem())
			}
		}

	case yaml.MappingNode:
		switch t.Kind() {
		case reflect.Map:
			for i := 0; i+1 < len(node.Content); i += 2 {
				if t.Key().Kind() == reflect.String {
					retagAsString(node.Content[i])
				}
				coerceScalars(node.Content[i+1], t.Elem())
			}
		case reflect.Struct:
			fields := jsonFields(t)
			for i := 0; i+1 < len(node.Content); i += 2 {
				if ft, ok := fields[node.Content[i].Value]; ok {
					coerceScalars(node.Content[i+1], ft)
				}
			}
		}
	}
}

func retagAsString(node *yaml.Node) {
	if node.Kind != yaml.ScalarNode || node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		return
	}
	switch node.Tag {
	case "!!int", "!!float", "!!bool":
		node.Tag = "!!str"
	}
}

// jsonFields maps the JSON names of the fields of struct type t to their
// types. Fields of embedded structs without a JSON name are promoted.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if f.Anonymous && name == "" {
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for k, v := range jsonFields(ft) {
					if _, ok := fields[k]; !ok {
						fields[k] = v
					}
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = f.Type
	}
	return fields
}
