package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/entity"
)

// DirectiveName identifies a directive by namespace and name.
type DirectiveName struct {
	Namespace string
	Name      string
}

func (n DirectiveName) String() string {
	return n.Namespace + "." + n.Name
}

type handlerFunc func(ctx context.Context, c *call) (any, error)

// responseOverrides pins the response header of directives that do not
// answer with <Name>.Response under their own namespace.
var responseOverrides = map[DirectiveName]DirectiveName{
	{domain.NamespaceReportState, "ReportState"}:         {domain.NamespaceAlexa, "StateReport"},
	{domain.NamespaceThermostat, "SetTargetTemperature"}: {domain.NamespaceAlexa, "Response"},
}

// call carries one directive through its handler.
type call struct {
	directive  *domain.Directive
	adapter    entity.Adapter
	properties []domain.Property
	now        func() time.Time
}

func (c *call) report(namespace, name string, value any) {
	c.properties = append(c.properties, domain.NewProperty(namespace, name, value, c.now()))
}

type Dispatcher struct {
	ha        entity.HomeAssistant
	discovery *Discovery
	handlers  map[DirectiveName]handlerFunc
	newID     func() string
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Dispatcher)

// WithClock replaces the clock used for property timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithMessageIDs replaces the message id generator.
func WithMessageIDs(newID func() string) Option {
	return func(d *Dispatcher) { d.newID = newID }
}

func NewDispatcher(ha entity.HomeAssistant, discovery *Discovery, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ha:        ha,
		discovery: discovery,
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    logger,
	}
	d.handlers = d.handlerTable()
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Directives lists every directive the dispatcher handles, sorted.
func (d *Dispatcher) Directives() []DirectiveName {
	out := make([]DirectiveName, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// lookupKey resolves the handler key. Directives under the bare "Alexa"
// namespace are keyed as "Alexa.<Name>".
func lookupKey(h domain.Header) DirectiveName {
	if h.Namespace == domain.NamespaceAlexa {
		return DirectiveName{Namespace: domain.NamespaceAlexa + "." + h.Name, Name: h.Name}
	}
	return DirectiveName{Namespace: h.Namespace, Name: h.Name}
}

// Dispatch runs one directive and always returns a response; failures are
// reported as error events.
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.DirectiveRequest) *domain.Response {
	dir := &req.Directive
	key := lookupKey(dir.Header)

	header := domain.Header{
		Namespace:        dir.Header.Namespace,
		Name:             dir.Header.Name + ".Response",
		PayloadVersion:   domain.PayloadVersion,
		MessageID:        d.newID(),
		CorrelationToken: dir.Header.CorrelationToken,
	}
	if override, ok := responseOverrides[key]; ok {
		header.Namespace = override.Namespace
		header.Name = override.Name
	}

	resp := &domain.Response{Event: domain.Event{Header: header}}
	if dir.Endpoint != nil {
		resp.Event.Endpoint = &domain.EndpointRef{EndpointID: dir.Endpoint.EndpointID}
	}

	c := &call{directive: dir, now: d.now}
	payload, err := d.invoke(ctx, key, c)
	if len(c.properties) > 0 {
		resp.Context = &domain.Context{Properties: c.properties}
	}

	if err != nil {
		de := domain.Classify(err)
		d.logger.Error("directive failed",
			"namespace", dir.Header.Namespace,
			"name", dir.Header.Name,
			"kind", de.Kind,
			"error", err,
		)
		resp.Event.Header.Name = de.ResponseName()
		resp.Event.Payload = de.ResponsePayload()
		return resp
	}

	if payload == nil {
		payload = map[string]any{}
	}
	resp.Event.Payload = payload

	d.logger.Debug("directive handled",
		"namespace", dir.Header.Namespace,
		"name", dir.Header.Name,
		"properties", len(c.properties),
	)
	return resp
}

func (d *Dispatcher) invoke(ctx context.Context, key DirectiveName, c *call) (any, error) {
	handler, ok := d.handlers[key]
	if !ok {
		return nil, domain.UnknownDirectiveError(c.directive.Header.Namespace, c.directive.Header.Name)
	}

	d.logger.Debug("invoking directive", "directive", key.String(), "payload", redactPayload(c.directive.Payload))

	if c.directive.Endpoint != nil && c.directive.Endpoint.EndpointID != "" {
		entityID := domain.EntityIDFromEndpoint(c.directive.Endpoint.EndpointID)
		adapter, err := entity.New(d.ha, entityID, 0)
		if err != nil {
			return nil, err
		}
		c.adapter = adapter
	}

	return handler(ctx, c)
}

var errNoEndpoint = errors.New("directive requires an endpoint")

// credentialKeys are payload fields that carry the user's access token.
var credentialKeys = []string{"scope", "accessToken"}

// redactPayload returns a copy of payload without credential fields.
func redactPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	for _, k := range credentialKeys {
		delete(out, k)
	}
	return out
}

// capability asserts that the directive's adapter implements T.
func capability[T any](c *call, namespace string) (T, error) {
	var zero T
	if c.adapter == nil {
		return zero, domain.InternalError(errNoEndpoint)
	}
	impl, ok := c.adapter.(T)
	if !ok {
		return zero, domain.InternalError(fmt.Errorf("%s does not support %s", c.adapter.EntityID(), namespace))
	}
	return impl, nil
}
