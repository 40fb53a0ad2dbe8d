// Package gateway defines the boundary between the reconciliation engine and
// the remote configuration system holding live state.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/openfroyo/confsync/pkg/model"
)

var (
	// ErrNotFound is returned by Retrieve and Update when the referenced
	// entity does not exist remotely.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned by Create when the entity already exists.
	ErrAlreadyExists = errors.New("entity already exists")
)

// RemoteEntity is a snapshot of an entity as persisted by the remote system.
type RemoteEntity struct {
	// Ref is the identity of the entity.
	Ref model.Reference

	// ID is the identifier assigned by the remote system.
	ID int64

	// Entity holds the live property values.
	Entity model.Entity

	// CreatedAt is when the entity was created remotely.
	CreatedAt time.Time

	// UpdatedAt is when the entity was last updated remotely.
	UpdatedAt time.Time
}

// Filter narrows RetrieveMany results.
type Filter struct {
	// Tenant restricts results to one tenant. Empty matches every tenant.
	Tenant string
}

// Matches reports whether ref passes the filter.
func (f Filter) Matches(ref model.Reference) bool {
	return f.Tenant == "" || ref.Tenant == f.Tenant
}

// Gateway reads and writes live configuration state. Every call blocks until
// the remote system answers.
type Gateway interface {
	// Retrieve returns the live entity identified by ref, or ErrNotFound.
	Retrieve(ctx context.Context, ref model.Reference) (*RemoteEntity, error)

	// RetrieveMany returns the live entities of a kind matching filter.
	RetrieveMany(ctx context.Context, kind model.Kind, filter Filter) ([]*RemoteEntity, error)

	// Create materializes a new entity and returns its persisted form.
	Create(ctx context.Context, entity model.Entity) (*RemoteEntity, error)

	// Update changes the properties of remote that are set on entity and
	// returns the persisted form.
	Update(ctx context.Context, entity model.Entity, remote *RemoteEntity) (*RemoteEntity, error)
}

// Exists reports whether ref exists remotely.
func Exists(ctx context.Context, gw Gateway, ref model.Reference) (bool, error) {
	_, err := gw.Retrieve(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
