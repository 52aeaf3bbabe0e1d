// Package entity adapts hub entities to the assistant's capability model.
//
// Each hub domain maps to one adapter type. What an adapter can do is the
// set of capability interfaces it implements (PowerController,
// PercentageController, ...); discovery and dispatch only ever ask whether
// an adapter satisfies an interface, never which domain it belongs to.
// Color capabilities are the one exception and are additionally gated on
// the light's feature flags.
package entity

import (
	"context"
	"fmt"
	"sort"

	"alexa-smart-home/internal/domain"
)

// HomeAssistant is the part of the hub API the adapters use. Service names
// use the hub's "domain.service" form.
type HomeAssistant interface {
	GetState(ctx context.Context, entityID string) (*domain.State, error)
	GetStates(ctx context.Context) ([]domain.State, error)
	CallService(ctx context.Context, service string, data map[string]any, wait bool) error
}

// Adapter is implemented by every entity adapter.
type Adapter interface {
	EntityID() string
	Domain() domain.EntityDomain
	Features() int
}

// Entity is the handle every adapter embeds.
type Entity struct {
	ha       HomeAssistant
	id       string
	domain   domain.EntityDomain
	features int
}

func (e *Entity) EntityID() string            { return e.id }
func (e *Entity) Domain() domain.EntityDomain { return e.domain }
func (e *Entity) Features() int               { return e.features }

// callService sends a fire-and-forget service call. Every call gets its own
// body so nothing leaks between invocations.
func (e *Entity) callService(ctx context.Context, service string, data map[string]any) error {
	body := make(map[string]any, len(data)+1)
	for k, v := range data {
		body[k] = v
	}
	body["entity_id"] = e.id

	if err := e.ha.CallService(ctx, service, body, false); err != nil {
		return fmt.Errorf("calling %s for %s: %w", service, e.id, err)
	}
	return nil
}

func (e *Entity) state(ctx context.Context) (*domain.State, error) {
	st, err := e.ha.GetState(ctx, e.id)
	if err != nil {
		return nil, fmt.Errorf("fetching state of %s: %w", e.id, err)
	}
	return st, nil
}

// stateOr returns st when the caller already fetched it.
func (e *Entity) stateOr(ctx context.Context, st *domain.State) (*domain.State, error) {
	if st != nil {
		return st, nil
	}
	return e.state(ctx)
}

type constructor func(base Entity) Adapter

var domains = map[domain.EntityDomain]constructor{
	domain.DomainSwitch:       func(b Entity) Adapter { return &Toggle{b} },
	domain.DomainInputBoolean: func(b Entity) Adapter { return &Toggle{b} },
	domain.DomainGroup:        func(b Entity) Adapter { return &Toggle{b} },
	domain.DomainAlert:        func(b Entity) Adapter { return &Toggle{b} },
	domain.DomainAutomation:   func(b Entity) Adapter { return &Toggle{b} },
	domain.DomainGarageDoor:   func(b Entity) Adapter { return &GarageDoor{b} },
	domain.DomainCover:        func(b Entity) Adapter { return &Cover{b} },
	domain.DomainScript:       func(b Entity) Adapter { return &Activity{b} },
	domain.DomainScene:        func(b Entity) Adapter { return &Activity{b} },
	domain.DomainFan:          func(b Entity) Adapter { return &Fan{Toggle{b}} },
	domain.DomainLight:        func(b Entity) Adapter { return &Light{Toggle{b}} },
	domain.DomainMediaPlayer:  func(b Entity) Adapter { return &MediaPlayer{Toggle{b}} },
	domain.DomainInputSlider:  func(b Entity) Adapter { return &InputSlider{b} },
	domain.DomainLock:         func(b Entity) Adapter { return &Lock{b} },
	domain.DomainClimate:      func(b Entity) Adapter { return &Climate{b} },
}

// New builds the adapter for entityID. Adapters hold no state beyond the
// handle and are meant to be built per call.
func New(ha HomeAssistant, entityID string, features int) (Adapter, error) {
	d, _, err := domain.SplitEntityID(entityID)
	if err != nil {
		return nil, domain.InternalError(err)
	}

	ctor, ok := domains[domain.EntityDomain(d)]
	if !ok {
		return nil, domain.UnsupportedDomainError(d)
	}

	return ctor(Entity{
		ha:       ha,
		id:       entityID,
		domain:   domain.EntityDomain(d),
		features: features,
	}), nil
}

// Domains lists the domains New accepts, sorted.
func Domains() []domain.EntityDomain {
	out := make([]domain.EntityDomain, 0, len(domains))
	for d := range domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
