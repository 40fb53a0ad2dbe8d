package gateway

import (
	"context"
	"sync/atomic"

	"github.com/openfroyo/confsync/pkg/model"
)

// Counting wraps a Gateway and counts the calls made through it.
type Counting struct {
	Gateway

	retrieves atomic.Int64
	creates   atomic.Int64
	updates   atomic.Int64
}

// NewCounting wraps gw.
func NewCounting(gw Gateway) *Counting {
	return &Counting{Gateway: gw}
}

// Retrieve implements Gateway.
func (c *Counting) Retrieve(ctx context.Context, ref model.Reference) (*RemoteEntity, error) {
	c.retrieves.Add(1)
	return c.Gateway.Retrieve(ctx, ref)
}

// RetrieveMany implements Gateway.
func (c *Counting) RetrieveMany(ctx context.Context, kind model.Kind, filter Filter) ([]*RemoteEntity, error) {
	c.retrieves.Add(1)
	return c.Gateway.RetrieveMany(ctx, kind, filter)
}

// Create implements Gateway.
func (c *Counting) Create(ctx context.Context, entity model.Entity) (*RemoteEntity, error) {
	c.creates.Add(1)
	return c.Gateway.Create(ctx, entity)
}

// Update implements Gateway.
func (c *Counting) Update(ctx context.Context, entity model.Entity, remote *RemoteEntity) (*RemoteEntity, error) {
	c.updates.Add(1)
	return c.Gateway.Update(ctx, entity, remote)
}

// Stats returns the calls made so far.
func (c *Counting) Stats() Stats {
	return Stats{
		Retrieves: int(c.retrieves.Load()),
		Creates:   int(c.creates.Load()),
		Updates:   int(c.updates.Load()),
	}
}
