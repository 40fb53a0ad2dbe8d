package model

import "fmt"

// Document is a parsed desired-state document: entities in document order
// indexed by reference.
type Document struct {
	entities []Entity
	index    map[Reference]Entity

	// Metadata holds the optional "__metadata__" section. The engine does not
	// interpret it.
	Metadata map[string]any
}

// DuplicateReferenceError reports two entities of one document sharing a
// reference.
type DuplicateReferenceError struct {
	Ref Reference
}

// Error implements the error interface.
func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("duplicate reference in document: %s", e.Ref)
}

// NewDocument builds a document from entities in document order.
func NewDocument(entities ...Entity) (*Document, error) {
	d := &Document{
		entities: make([]Entity, 0, len(entities)),
		index:    make(map[Reference]Entity, len(entities)),
	}
	for _, e := range entities {
		if err := d.add(e); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Document) add(e Entity) error {
	ref := e.Ref()
	if _, exists := d.index[ref]; exists {
		return &DuplicateReferenceError{Ref: ref}
	}
	d.entities = append(d.entities, e)
	d.index[ref] = e
	return nil
}

// Entities returns the entities in document order.
func (d *Document) Entities() []Entity {
	out := make([]Entity, len(d.entities))
	copy(out, d.entities)
	return out
}

// Len returns the number of entities.
func (d *Document) Len() int {
	return len(d.entities)
}

// Lookup returns the entity with the given reference.
func (d *Document) Lookup(ref Reference) (Entity, bool) {
	e, ok := d.index[ref]
	return e, ok
}

// Has reports whether the document defines ref.
func (d *Document) Has(ref Reference) bool {
	_, ok := d.index[ref]
	return ok
}

// References returns the references of all entities in document order.
func (d *Document) References() []Reference {
	refs := make([]Reference, len(d.entities))
	for i, e := range d.entities {
		refs[i] = e.Ref()
	}
	return refs
}

// OfKind returns the entities of one kind in document order.
func (d *Document) OfKind(kind Kind) []Entity {
	var out []Entity
	for _, e := range d.entities {
		if e.Ref().Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
