package config

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/openfroyo/confsync/pkg/model"
)

// WriteDocument encodes entities as a desired-state document that Parse
// accepts. Sections follow the kind registry order and entities keep their
// order within a section.
func WriteDocument(w io.Writer, entities []model.Entity, format Format) error {
	sections := make(map[model.Kind][]any)
	for _, e := range entities {
		fields, err := toFields(e)
		if err != nil {
			return err
		}
		kind := e.Ref().Kind
		sections[kind] = append(sections[kind], fields)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, info := range model.Kinds() {
		items, ok := sections[info.Kind]
		if !ok {
			continue
		}
		var value yaml.Node
		if err := value.Encode(items); err != nil {
			return fmt.Errorf("failed to encode %s: %w", info.DocumentKey, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: info.DocumentKey},
			&value,
		)
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		return writeJSON(w, root)
	default:
		return fmt.Errorf("unsupported document format: %s", format)
	}
}

// writeJSON writes the sections in order; encoding/json would sort the keys
// of a map.
func writeJSON(w io.Writer, root *yaml.Node) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		var items []any
		if err := root.Content[i+1].Decode(&items); err != nil {
			return err
		}
		data, err := json.MarshalIndent(items, "  ", "  ")
		if err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
		sep := ","
		if i == 0 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "%s\n  %q: %s", sep, root.Content[i].Value, data); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n}\n")
	return err
}

func toFields(e model.Entity) (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Ref(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Ref(), err)
	}
	return fields, nil
}
