package engine

import (
	"context"
	"errors"

	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

// ToOperation classifies an entity against its live state: Create when it is
// absent, Skip when applying it would not change anything, Update otherwise.
func ToOperation(ctx context.Context, gw gateway.Gateway, e model.Entity) (*Operation, error) {
	remote, err := gw.Retrieve(ctx, e.Ref())
	if errors.Is(err, gateway.ErrNotFound) {
		return &Operation{Type: OperationCreate, Entity: e}, nil
	}
	if err != nil {
		return nil, NewTransientError("failed to retrieve remote entity", err).
			WithCode(ErrCodeGateway).
			WithResource(e.Ref())
	}

	merged, err := model.Merge(e, remote.Entity)
	if err != nil {
		return nil, NewPermanentError("failed to compare with remote entity", err).
			WithCode(ErrCodeInternal).
			WithResource(e.Ref())
	}
	if model.Equal(merged, remote.Entity) {
		return &Operation{Type: OperationSkip, Entity: e, Remote: remote}, nil
	}
	return &Operation{Type: OperationUpdate, Entity: e, Remote: remote}, nil
}

// Apply performs the operation against the gateway. Skip operations do not
// call the gateway and return the snapshot taken at plan time.
func (o *Operation) Apply(ctx context.Context, gw gateway.Gateway) (*gateway.RemoteEntity, error) {
	var (
		result *gateway.RemoteEntity
		err    error
	)

	switch o.Type {
	case OperationCreate:
		result, err = gw.Create(ctx, o.Entity)
	case OperationUpdate:
		result, err = gw.Update(ctx, o.Entity, o.Remote)
	case OperationUpdateReference:
		// The entity was created from its bare variant earlier in the plan.
		var remote *gateway.RemoteEntity
		remote, err = gw.Retrieve(ctx, o.Ref())
		if err == nil {
			result, err = gw.Update(ctx, o.Entity, remote)
		}
	case OperationSkip:
		return o.Remote, nil
	default:
		return nil, NewPermanentError("unknown operation type", o.Type.Validate()).
			WithCode(ErrCodeInternal).
			WithResource(o.Ref())
	}

	if err != nil {
		return nil, classifyGatewayError(err).
			WithResource(o.Ref()).
			WithOperation(o.Type)
	}
	return result, nil
}

func classifyGatewayError(err error) *EngineError {
	switch {
	case errors.Is(err, gateway.ErrAlreadyExists):
		return NewConflictError("remote entity already exists", err).WithCode(ErrCodeConflict)
	case errors.Is(err, gateway.ErrNotFound):
		return NewConflictError("remote entity disappeared", err).WithCode(ErrCodeNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewTransientError("remote call interrupted", err).WithCode(ErrCodeGateway)
	default:
		return NewPermanentError("remote system rejected the operation", err).WithCode(ErrCodeGateway)
	}
}
