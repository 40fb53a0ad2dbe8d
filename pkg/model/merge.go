package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Merge returns a copy of live with every property set on desired
// overlaid. Properties unset on desired keep their live value. The result
// has the concrete type of live.
func Merge(desired, live Entity) (Entity, error) {
	base, err := toMap(live)
	if err != nil {
		return nil, err
	}
	overlay, err := toMap(desired)
	if err != nil {
		return nil, err
	}
	for k, v := range overlay {
		base[k] = v
	}

	merged, err := newLike(live)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged entity: %w", err)
	}
	if err := json.Unmarshal(data, merged); err != nil {
		return nil, fmt.Errorf("failed to decode merged entity: %w", err)
	}
	return merged, nil
}

// Equal reports whether two entities have the same canonical encoding.
func Equal(a, b Entity) bool {
	ea, err := json.Marshal(a)
	if err != nil {
		return false
	}
	eb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}

// Clone returns a deep copy of e.
func Clone(e Entity) (Entity, error) {
	out, err := newLike(e)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Ref(), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", e.Ref(), err)
	}
	return out, nil
}

// Decode decodes the JSON encoding of an entity of the given kind. Unknown
// properties are rejected.
func Decode(kind Kind, data []byte) (Entity, error) {
	e, err := New(kind)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(e); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", kind, err)
	}
	return e, nil
}

func toMap(e Entity) (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Ref(), err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", e.Ref(), err)
	}
	return m, nil
}

// newLike returns a zero entity with the concrete type of e.
func newLike(e Entity) (Entity, error) {
	t := reflect.TypeOf(e)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("entity %T is not a pointer", e)
	}
	out, ok := reflect.New(t.Elem()).Interface().(Entity)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement Entity", t)
	}
	return out, nil
}
