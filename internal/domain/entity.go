package domain

import (
	"fmt"
	"strings"
)

type EntityDomain string

const (
	DomainSwitch       EntityDomain = "switch"
	DomainLight        EntityDomain = "light"
	DomainLock         EntityDomain = "lock"
	DomainClimate      EntityDomain = "climate"
	DomainFan          EntityDomain = "fan"
	DomainCover        EntityDomain = "cover"
	DomainMediaPlayer  EntityDomain = "media_player"
	DomainScript       EntityDomain = "script"
	DomainScene        EntityDomain = "scene"
	DomainGarageDoor   EntityDomain = "garage_door"
	DomainInputBoolean EntityDomain = "input_boolean"
	DomainInputSlider  EntityDomain = "input_slider"
	DomainGroup        EntityDomain = "group"
	DomainAlert        EntityDomain = "alert"
	DomainAutomation   EntityDomain = "automation"
)

// KnownDomains lists every domain an adapter exists for, in the order used
// for configuration defaults.
var KnownDomains = []EntityDomain{
	DomainAlert,
	DomainAutomation,
	DomainClimate,
	DomainCover,
	DomainFan,
	DomainGarageDoor,
	DomainGroup,
	DomainInputBoolean,
	DomainInputSlider,
	DomainLight,
	DomainLock,
	DomainMediaPlayer,
	DomainScene,
	DomainScript,
	DomainSwitch,
}

// IsKnownDomain reports whether d is one of KnownDomains.
func IsKnownDomain(d string) bool {
	for _, known := range KnownDomains {
		if string(known) == d {
			return true
		}
	}
	return false
}

// Light feature flags from the hub's supported_features attribute.
const (
	LightSupportColorTemp = 2
	LightSupportRGBColor  = 16
	LightSupportXYColor   = 64
)

const (
	hubSeparator      = "."
	endpointSeparator = ":"
)

// EntityIDFromEndpoint turns an assistant endpoint id ("light:kitchen")
// into a hub entity id ("light.kitchen").
func EntityIDFromEndpoint(endpointID string) string {
	return strings.Replace(endpointID, endpointSeparator, hubSeparator, 1)
}

// EndpointIDFromEntity is the inverse of EntityIDFromEndpoint. Endpoint ids
// are limited to [a-zA-Z0-9_\-=#;:?@&], so the hub separator has to go.
func EndpointIDFromEntity(entityID string) string {
	return strings.Replace(entityID, hubSeparator, endpointSeparator, 1)
}

// SplitEntityID splits "light.kitchen" into ("light", "kitchen").
func SplitEntityID(entityID string) (string, string, error) {
	parts := strings.SplitN(entityID, hubSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid entity id %q", entityID)
	}
	return parts[0], parts[1], nil
}

// State is one entity as returned by the hub's states endpoint.
type State struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Domain returns the entity's domain, or "" for a malformed id.
func (s *State) Domain() string {
	d, _, err := SplitEntityID(s.EntityID)
	if err != nil {
		return ""
	}
	return d
}

// Float reads a numeric attribute.
func (s *State) Float(key string) (float64, error) {
	v, ok := s.Attributes[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: missing attribute %q", s.EntityID, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s: attribute %q is %T, not a number", s.EntityID, key, v)
	}
}

// OptionalFloat reads a numeric attribute that may be absent or null.
func (s *State) OptionalFloat(key string) (*float64, error) {
	if v, ok := s.Attributes[key]; !ok || v == nil {
		return nil, nil
	}
	f, err := s.Float(key)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// String reads a string attribute, returning "" if it is absent.
func (s *State) String(key string) string {
	if v, ok := s.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// Bool reads an attribute as a flag. The second result is false when the
// attribute is absent. Non-boolean values follow truthiness: a non-empty
// string or collection and a non-zero number read as true, null as false.
func (s *State) Bool(key string) (bool, bool) {
	v, ok := s.Attributes[key]
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case nil:
		return false, true
	case bool:
		return b, true
	case string:
		return b != "", true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	case []any:
		return len(b) > 0, true
	case map[string]any:
		return len(b) > 0, true
	default:
		return true, true
	}
}

// Strings reads a list-of-strings attribute.
func (s *State) Strings(key string) []string {
	raw, ok := s.Attributes[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
