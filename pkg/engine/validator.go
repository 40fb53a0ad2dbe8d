package engine

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

// Validator classifies the entities of a document against remote state. It
// only reads from the gateway.
type Validator struct {
	gateway gateway.Gateway
	logger  zerolog.Logger
}

// NewValidator creates a validator reading live state from gw.
func NewValidator(gw gateway.Gateway, logger zerolog.Logger) *Validator {
	return &Validator{
		gateway: gw,
		logger:  logger.With().Str("component", "validator").Logger(),
	}
}

// Validate runs every check and returns a *ValidationError carrying all
// findings when any check fails.
func (v *Validator) Validate(ctx context.Context, doc *model.Document) error {
	v.logger.Info().Int("entities", doc.Len()).Msg("Beginning validation.")

	findings, err := v.FindAll(ctx, doc)
	if err != nil {
		return err
	}
	if len(findings) > 0 {
		v.logger.Debug().Int("findings", len(findings)).Msg("Validation failed.")
		return &ValidationError{Findings: findings}
	}

	v.logger.Info().Msg("Validation complete.")
	return nil
}

// FindAll returns the findings of every check, grouped by category in report
// order.
func (v *Validator) FindAll(ctx context.Context, doc *model.Document) ([]Finding, error) {
	view := newRemoteView(ctx, v.gateway)
	var findings []Finding

	missingProperties, err := findMissingProperties(doc, doc.Entities(), view)
	if err != nil {
		return nil, err
	}
	findings = append(findings, missingProperties...)

	missingDependencies, err := findMissingDependencies(doc, doc.Entities(), view)
	if err != nil {
		return nil, err
	}
	findings = append(findings, missingDependencies...)

	unchangeable, err := findUnchangeableProperties(doc.Entities(), view)
	if err != nil {
		return nil, err
	}
	return append(findings, unchangeable...), nil
}

// FindMissingProperties reports the entities absent remotely whose mandatory
// properties are unset.
func (v *Validator) FindMissingProperties(ctx context.Context, doc *model.Document) ([]Finding, error) {
	return findMissingProperties(doc, doc.Entities(), newRemoteView(ctx, v.gateway))
}

// FindMissingDependencies reports the references that resolve neither in the
// document nor remotely.
func (v *Validator) FindMissingDependencies(ctx context.Context, doc *model.Document) ([]Finding, error) {
	return findMissingDependencies(doc, doc.Entities(), newRemoteView(ctx, v.gateway))
}

// FindUnchangeableProperties reports the entities present remotely whose
// desired state changes an unchangeable property.
func (v *Validator) FindUnchangeableProperties(ctx context.Context, doc *model.Document) ([]Finding, error) {
	return findUnchangeableProperties(doc.Entities(), newRemoteView(ctx, v.gateway))
}

func findMissingProperties(doc *model.Document, entities []model.Entity, view *remoteView) ([]Finding, error) {
	cc := model.CheckContext{Document: doc, Exists: view.exists}

	var findings []Finding
	for _, e := range entities {
		remote, err := view.lookup(e.Ref())
		if err != nil {
			return nil, err
		}
		if remote != nil {
			continue
		}
		if missing := e.MissingProperties(cc); len(missing) > 0 {
			findings = append(findings, Finding{
				Category:   FindingMissingProperties,
				Entity:     e,
				Properties: missing,
			})
		}
	}
	return findings, view.err
}

func findMissingDependencies(doc *model.Document, entities []model.Entity, view *remoteView) ([]Finding, error) {
	var findings []Finding
	for _, e := range entities {
		var missing []model.Reference
		for _, ref := range e.References() {
			if doc.Has(ref) {
				continue
			}
			exists, err := view.lookupExists(ref)
			if err != nil {
				return nil, err
			}
			if !exists {
				missing = append(missing, ref)
			}
		}
		if len(missing) > 0 {
			findings = append(findings, Finding{
				Category:   FindingMissingDependencies,
				Entity:     e,
				References: missing,
			})
		}
	}
	return findings, nil
}

func findUnchangeableProperties(entities []model.Entity, view *remoteView) ([]Finding, error) {
	var findings []Finding
	for _, e := range entities {
		remote, err := view.lookup(e.Ref())
		if err != nil {
			return nil, err
		}
		if remote == nil {
			continue
		}
		if violated := e.UnchangeableViolations(remote.Entity); len(violated) > 0 {
			findings = append(findings, Finding{
				Category:   FindingUnchangeableProperties,
				Entity:     e,
				Properties: violated,
			})
		}
	}
	return findings, nil
}

// remoteView memoizes gateway lookups for the duration of one check so that
// every reference is retrieved at most once.
type remoteView struct {
	ctx     context.Context
	gateway gateway.Gateway
	cache   map[model.Reference]*gateway.RemoteEntity
	err     error
}

func newRemoteView(ctx context.Context, gw gateway.Gateway) *remoteView {
	return &remoteView{
		ctx:     ctx,
		gateway: gw,
		cache:   make(map[model.Reference]*gateway.RemoteEntity),
	}
}

// lookup returns the live entity, or nil when it does not exist.
func (r *remoteView) lookup(ref model.Reference) (*gateway.RemoteEntity, error) {
	if remote, ok := r.cache[ref]; ok {
		return remote, nil
	}
	remote, err := r.gateway.Retrieve(r.ctx, ref)
	if errors.Is(err, gateway.ErrNotFound) {
		r.cache[ref] = nil
		return nil, nil
	}
	if err != nil {
		return nil, NewTransientError("failed to retrieve remote entity", err).
			WithCode(ErrCodeGateway).
			WithResource(ref)
	}
	r.cache[ref] = remote
	return remote, nil
}

func (r *remoteView) lookupExists(ref model.Reference) (bool, error) {
	remote, err := r.lookup(ref)
	return remote != nil, err
}

// exists adapts lookup to model.CheckContext. The first error is kept and
// reported by the caller.
func (r *remoteView) exists(ref model.Reference) bool {
	ok, err := r.lookupExists(ref)
	if err != nil && r.err == nil {
		r.err = err
	}
	return ok
}
