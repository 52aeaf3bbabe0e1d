package entity

import (
	"context"

	"alexa-smart-home/internal/domain"
)

type PowerController interface {
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

type PercentageController interface {
	Percentage(ctx context.Context) (float64, error)
	SetPercentage(ctx context.Context, pct float64) error
}

type TemperatureSensor interface {
	CurrentTemperature(ctx context.Context, st *domain.State) (*float64, error)
}

type ThermostatController interface {
	TargetTemperature(ctx context.Context, st *domain.State) (*float64, string, error)
	SetTargetTemperature(ctx context.Context, celsius float64, mode string, st *domain.State) error
	SetThermostatMode(ctx context.Context, mode string) error
	Reading(ctx context.Context) (*ThermostatReading, error)
}

type LockController interface {
	LockState(ctx context.Context) (string, error)
	SetLockState(ctx context.Context, state string) error
}

type ColorTemperatureController interface {
	ColorTemperature(ctx context.Context) (float64, error)
	SetColorTemperature(ctx context.Context, kelvin float64) error
}

type ColorController interface {
	SetColor(ctx context.Context, hue, saturation, brightness float64) error
}

var (
	_ PowerController = (*Toggle)(nil)
	_ PowerController = (*GarageDoor)(nil)
	_ PowerController = (*Cover)(nil)
	_ PowerController = (*Activity)(nil)
	_ PowerController = (*Climate)(nil)

	_ PercentageController = (*Fan)(nil)
	_ PercentageController = (*Light)(nil)
	_ PercentageController = (*MediaPlayer)(nil)
	_ PercentageController = (*InputSlider)(nil)

	_ TemperatureSensor    = (*Climate)(nil)
	_ ThermostatController = (*Climate)(nil)
	_ LockController       = (*Lock)(nil)

	_ ColorTemperatureController = (*Light)(nil)
	_ ColorController            = (*Light)(nil)
)

// Set records which capability interfaces an adapter implements.
type Set struct {
	Power            bool
	Percentage       bool
	Temperature      bool
	Thermostat       bool
	Lock             bool
	ColorTemperature bool
	Color            bool
}

// Supports evaluates the adapter's capability interfaces.
func Supports(a Adapter) Set {
	var s Set
	_, s.Power = a.(PowerController)
	_, s.Percentage = a.(PercentageController)
	_, s.Temperature = a.(TemperatureSensor)
	_, s.Thermostat = a.(ThermostatController)
	_, s.Lock = a.(LockController)
	_, s.ColorTemperature = a.(ColorTemperatureController)
	_, s.Color = a.(ColorController)
	return s
}

// Advertised narrows Supports to what discovery may announce: color
// capabilities need a light whose feature flags enable them.
func Advertised(a Adapter) Set {
	s := Supports(a)
	isLight := a.Domain() == domain.DomainLight
	s.Color = s.Color && isLight && a.Features()&domain.LightSupportRGBColor != 0
	s.ColorTemperature = s.ColorTemperature && isLight && a.Features()&domain.LightSupportColorTemp != 0
	return s
}

// Interfaces lists the assistant interfaces a set maps to, in the order
// they are advertised. The base Alexa interface comes first and
// EndpointHealth last, unconditionally.
func (s Set) Interfaces() []string {
	out := []string{domain.NamespaceAlexa}
	if s.Power {
		out = append(out, domain.NamespacePower)
	}
	if s.Percentage {
		out = append(out, domain.NamespacePercentage, domain.NamespaceBrightness)
	}
	if s.Temperature {
		out = append(out, domain.NamespaceTemperature)
	}
	if s.Thermostat {
		out = append(out, domain.NamespaceThermostat)
	}
	if s.Lock {
		out = append(out, domain.NamespaceLock)
	}
	if s.Color {
		out = append(out, domain.NamespaceColor)
	}
	if s.ColorTemperature {
		out = append(out, domain.NamespaceColorTemperature)
	}
	return append(out, domain.NamespaceEndpointHealth)
}

// supportedProperties holds, per interface, the advertised property names
// and whether ReportState can read them back.
var supportedProperties = map[string]struct {
	names       []string
	retrievable bool
}{
	domain.NamespacePower:            {[]string{domain.PropertyPowerState}, true},
	domain.NamespacePercentage:       {[]string{domain.PropertyPercentage}, true},
	domain.NamespaceBrightness:       {[]string{domain.PropertyBrightness}, true},
	domain.NamespaceTemperature:      {[]string{domain.PropertyTemperature}, true},
	domain.NamespaceThermostat:       {[]string{domain.PropertyTargetSetpoint, domain.PropertyThermostatMode}, true},
	domain.NamespaceLock:             {[]string{domain.PropertyLockState}, true},
	domain.NamespaceColor:            {[]string{domain.PropertyColor}, false},
	domain.NamespaceColorTemperature: {[]string{domain.PropertyColorTemperature}, true},
	domain.NamespaceEndpointHealth:   {[]string{domain.PropertyConnectivity}, true},
}

// Capabilities builds the discovery capability descriptors for a.
func Capabilities(a Adapter) []domain.Capability {
	ifaces := Advertised(a).Interfaces()
	out := make([]domain.Capability, 0, len(ifaces))

	for _, iface := range ifaces {
		c := domain.Capability{
			Type:      "AlexaInterface",
			Interface: iface,
			Version:   domain.PayloadVersion,
		}
		if props, ok := supportedProperties[iface]; ok {
			supported := make([]domain.SupportedProperty, 0, len(props.names))
			for _, name := range props.names {
				supported = append(supported, domain.SupportedProperty{Name: name})
			}
			c.Properties = &domain.CapabilityProperties{
				Supported:           supported,
				ProactivelyReported: props.retrievable,
				Retrievable:         props.retrievable,
			}
		}
		out = append(out, c)
	}

	return out
}
