package domain

import "time"

const (
	PayloadVersion    = "3"
	UncertaintyMillis = 200

	// TimeOfSampleLayout is ISO 8601 in UTC with millisecond precision.
	TimeOfSampleLayout = "2006-01-02T15:04:05.000Z"
)

// DirectiveRequest is the inbound document: {"directive": {...}}.
type DirectiveRequest struct {
	Directive Directive `json:"directive"`
}

type Directive struct {
	Header   Header         `json:"header"`
	Endpoint *Endpoint      `json:"endpoint,omitempty"`
	Payload  map[string]any `json:"payload"`
}

type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	PayloadVersion   string `json:"payloadVersion"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
}

type Endpoint struct {
	EndpointID string `json:"endpointId"`
}

// Response is the envelope returned for every directive.
type Response struct {
	Context *Context `json:"context,omitempty"`
	Event   Event    `json:"event"`
}

type Event struct {
	Header   Header       `json:"header"`
	Endpoint *EndpointRef `json:"endpoint,omitempty"`
	Payload  any          `json:"payload"`
}

// EndpointRef is the endpoint echo on a response: only the id is returned.
type EndpointRef struct {
	EndpointID string `json:"endpointId"`
}

type Context struct {
	Properties []Property `json:"properties"`
}

// Property is a single reported property value.
type Property struct {
	Namespace                 string `json:"namespace"`
	Name                      string `json:"name"`
	Value                     any    `json:"value"`
	TimeOfSample              string `json:"timeOfSample"`
	UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
}

func NewProperty(namespace, name string, value any, sampled time.Time) Property {
	return Property{
		Namespace:                 namespace,
		Name:                      name,
		Value:                     value,
		TimeOfSample:              sampled.UTC().Truncate(time.Millisecond).Format(TimeOfSampleLayout),
		UncertaintyInMilliseconds: UncertaintyMillis,
	}
}

// TemperatureValue is the structured value of temperature properties.
type TemperatureValue struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

// ColorValue is the structured value of the color property.
type ColorValue struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
}

// ConnectivityValue is the structured value of EndpointHealth.connectivity.
type ConnectivityValue struct {
	Value string `json:"value"`
}
