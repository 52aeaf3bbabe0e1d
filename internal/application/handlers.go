package application

import (
	"context"
	"fmt"
	"math"
	"strings"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/entity"
	"alexa-smart-home/internal/units"
)

const (
	colorTemperatureStep = 500.0
	minColorTemperature  = 1000.0
	maxColorTemperature  = 10000.0
)

func (d *Dispatcher) handlerTable() map[DirectiveName]handlerFunc {
	return map[DirectiveName]handlerFunc{
		{domain.NamespaceDiscovery, "Discover"}: d.discover,

		{domain.NamespacePower, "TurnOn"}:  turnOn,
		{domain.NamespacePower, "TurnOff"}: turnOff,

		{domain.NamespaceBrightness, "SetBrightness"}:    setPercentage(domain.NamespaceBrightness, domain.PropertyBrightness, "brightness"),
		{domain.NamespaceBrightness, "AdjustBrightness"}: adjustPercentage(domain.NamespaceBrightness, domain.PropertyBrightness, "brightnessDelta"),
		{domain.NamespacePercentage, "SetPercentage"}:    setPercentage(domain.NamespacePercentage, domain.PropertyPercentage, "percentage"),
		{domain.NamespacePercentage, "AdjustPercentage"}: adjustPercentage(domain.NamespacePercentage, domain.PropertyPercentage, "percentageDelta"),

		{domain.NamespaceColor, "SetColor"}: setColor,

		{domain.NamespaceColorTemperature, "SetColorTemperature"}:      setColorTemperature,
		{domain.NamespaceColorTemperature, "IncreaseColorTemperature"}: stepColorTemperature(colorTemperatureStep),
		{domain.NamespaceColorTemperature, "DecreaseColorTemperature"}: stepColorTemperature(-colorTemperatureStep),

		{domain.NamespaceLock, "Lock"}:   setLockState(entity.LockStateLocked),
		{domain.NamespaceLock, "Unlock"}: setLockState(entity.LockStateUnlocked),

		{domain.NamespaceThermostat, "SetTargetTemperature"}:    setTargetTemperature,
		{domain.NamespaceThermostat, "AdjustTargetTemperature"}: adjustTargetTemperature,
		{domain.NamespaceThermostat, "SetThermostatMode"}:       setThermostatMode,

		{domain.NamespaceReportState, "ReportState"}: d.reportState,
	}
}

func (d *Dispatcher) discover(ctx context.Context, _ *call) (any, error) {
	return d.discovery.Discover(ctx), nil
}

func turnOn(ctx context.Context, c *call) (any, error) {
	power, err := capability[entity.PowerController](c, domain.NamespacePower)
	if err != nil {
		return nil, err
	}
	if err := power.TurnOn(ctx); err != nil {
		return nil, err
	}
	c.report(domain.NamespacePower, domain.PropertyPowerState, "ON")
	return nil, nil
}

func turnOff(ctx context.Context, c *call) (any, error) {
	power, err := capability[entity.PowerController](c, domain.NamespacePower)
	if err != nil {
		return nil, err
	}
	if err := power.TurnOff(ctx); err != nil {
		return nil, err
	}
	c.report(domain.NamespacePower, domain.PropertyPowerState, "OFF")
	return nil, nil
}

func setPercentage(namespace, property, key string) handlerFunc {
	return func(ctx context.Context, c *call) (any, error) {
		ctrl, err := capability[entity.PercentageController](c, namespace)
		if err != nil {
			return nil, err
		}
		pct, err := payloadFloat(c.directive.Payload, key)
		if err != nil {
			return nil, err
		}
		pct = units.Clamp(pct, 0, 100)

		if err := ctrl.SetPercentage(ctx, pct); err != nil {
			return nil, err
		}
		c.report(namespace, property, int(math.Round(pct)))
		return nil, nil
	}
}

func adjustPercentage(namespace, property, key string) handlerFunc {
	return func(ctx context.Context, c *call) (any, error) {
		ctrl, err := capability[entity.PercentageController](c, namespace)
		if err != nil {
			return nil, err
		}
		delta, err := payloadFloat(c.directive.Payload, key)
		if err != nil {
			return nil, err
		}

		current, err := ctrl.Percentage(ctx)
		if err != nil {
			return nil, err
		}
		pct := units.Clamp(current+delta, 0, 100)

		if err := ctrl.SetPercentage(ctx, pct); err != nil {
			return nil, err
		}
		c.report(namespace, property, int(math.Round(pct)))
		return nil, nil
	}
}

func setColor(ctx context.Context, c *call) (any, error) {
	ctrl, err := capability[entity.ColorController](c, domain.NamespaceColor)
	if err != nil {
		return nil, err
	}

	color, ok := c.directive.Payload["color"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload: missing color")
	}
	var hsv domain.ColorValue
	if hsv.Hue, err = payloadFloat(color, "hue"); err != nil {
		return nil, err
	}
	if hsv.Saturation, err = payloadFloat(color, "saturation"); err != nil {
		return nil, err
	}
	if hsv.Brightness, err = payloadFloat(color, "brightness"); err != nil {
		return nil, err
	}

	if err := ctrl.SetColor(ctx, hsv.Hue, hsv.Saturation, hsv.Brightness); err != nil {
		return nil, err
	}
	c.report(domain.NamespaceColor, domain.PropertyColor, hsv)
	return nil, nil
}

func setColorTemperature(ctx context.Context, c *call) (any, error) {
	ctrl, err := capability[entity.ColorTemperatureController](c, domain.NamespaceColorTemperature)
	if err != nil {
		return nil, err
	}
	kelvin, err := payloadFloat(c.directive.Payload, domain.PropertyColorTemperature)
	if err != nil {
		return nil, err
	}

	if err := ctrl.SetColorTemperature(ctx, kelvin); err != nil {
		return nil, err
	}
	c.report(domain.NamespaceColorTemperature, domain.PropertyColorTemperature, int(math.Round(kelvin)))
	return nil, nil
}

func stepColorTemperature(step float64) handlerFunc {
	return func(ctx context.Context, c *call) (any, error) {
		ctrl, err := capability[entity.ColorTemperatureController](c, domain.NamespaceColorTemperature)
		if err != nil {
			return nil, err
		}

		current, err := ctrl.ColorTemperature(ctx)
		if err != nil {
			return nil, err
		}
		kelvin := units.Clamp(current+step, minColorTemperature, maxColorTemperature)

		if err := ctrl.SetColorTemperature(ctx, kelvin); err != nil {
			return nil, err
		}
		c.report(domain.NamespaceColorTemperature, domain.PropertyColorTemperature, int(math.Round(kelvin)))
		return nil, nil
	}
}

func setLockState(state string) handlerFunc {
	return func(ctx context.Context, c *call) (any, error) {
		ctrl, err := capability[entity.LockController](c, domain.NamespaceLock)
		if err != nil {
			return nil, err
		}
		if err := ctrl.SetLockState(ctx, state); err != nil {
			return nil, err
		}
		c.report(domain.NamespaceLock, domain.PropertyLockState, state)
		return nil, nil
	}
}

func setTargetTemperature(ctx context.Context, c *call) (any, error) {
	thermostat, err := capability[entity.ThermostatController](c, domain.NamespaceThermostat)
	if err != nil {
		return nil, err
	}
	requested, err := payloadTemperature(c.directive.Payload, domain.PropertyTargetSetpoint, units.ScaleToCelsius)
	if err != nil {
		return nil, err
	}

	reading, err := thermostat.Reading(ctx)
	if err != nil {
		return nil, err
	}
	if requested < reading.Min || requested > reading.Max {
		return nil, domain.ValueOutOfRangeError(reading.Min, reading.Max)
	}

	return nil, applySetpoint(ctx, c, thermostat, reading, requested)
}

// adjustTargetTemperature moves the setpoint by a delta. A result past a
// bound is clamped to it, unless the setpoint already sits on that bound.
func adjustTargetTemperature(ctx context.Context, c *call) (any, error) {
	thermostat, err := capability[entity.ThermostatController](c, domain.NamespaceThermostat)
	if err != nil {
		return nil, err
	}
	delta, err := payloadTemperature(c.directive.Payload, "targetSetpointDelta", units.DeltaToCelsius)
	if err != nil {
		return nil, err
	}

	reading, err := thermostat.Reading(ctx)
	if err != nil {
		return nil, err
	}

	base := reading.Target
	if base == nil {
		base = reading.Current
	}
	if base == nil {
		return nil, fmt.Errorf("%s reports neither a target nor a current temperature", c.adapter.EntityID())
	}

	requested := *base + delta
	switch {
	case requested > reading.Max:
		if *base == reading.Max {
			return nil, domain.ValueOutOfRangeError(reading.Min, reading.Max)
		}
		requested = reading.Max
	case requested < reading.Min:
		if *base == reading.Min {
			return nil, domain.ValueOutOfRangeError(reading.Min, reading.Max)
		}
		requested = reading.Min
	}

	return nil, applySetpoint(ctx, c, thermostat, reading, requested)
}

// applySetpoint sends the setpoint. When the hub reports a mode outside
// HEAT/COOL/AUTO/OFF a heat or cool mode is derived from the room
// temperature and sent with it.
func applySetpoint(ctx context.Context, c *call, thermostat entity.ThermostatController, reading *entity.ThermostatReading, celsius float64) error {
	var forced string
	mode := reading.Mode
	if !domain.IsCanonicalMode(mode) {
		forced = reading.HeatOrCool(celsius)
		mode = strings.ToUpper(forced)
	}

	if err := thermostat.SetTargetTemperature(ctx, celsius, forced, reading.State); err != nil {
		return err
	}

	c.report(domain.NamespaceThermostat, domain.PropertyTargetSetpoint, domain.TemperatureValue{
		Value: celsius,
		Scale: units.ScaleCelsius,
	})
	c.report(domain.NamespaceThermostat, domain.PropertyThermostatMode, mode)
	return nil
}

func setThermostatMode(ctx context.Context, c *call) (any, error) {
	thermostat, err := capability[entity.ThermostatController](c, domain.NamespaceThermostat)
	if err != nil {
		return nil, err
	}

	var mode string
	switch v := c.directive.Payload[domain.PropertyThermostatMode].(type) {
	case string:
		mode = v
	case map[string]any:
		mode, _ = v["value"].(string)
	}
	if mode == "" {
		return nil, fmt.Errorf("payload: missing %s", domain.PropertyThermostatMode)
	}
	mode = strings.ToUpper(mode)

	if err := thermostat.SetThermostatMode(ctx, mode); err != nil {
		return nil, err
	}
	c.report(domain.NamespaceThermostat, domain.PropertyThermostatMode, mode)
	return nil, nil
}

func payloadFloat(payload map[string]any, key string) (float64, error) {
	switch v := payload[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return 0, fmt.Errorf("payload: missing %s", key)
	default:
		return 0, fmt.Errorf("payload: %s is %T, not a number", key, v)
	}
}

// payloadTemperature reads a {value, scale} object and converts it to
// Celsius with convert.
func payloadTemperature(payload map[string]any, key string, convert func(float64, string) (float64, error)) (float64, error) {
	obj, ok := payload[key].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("payload: missing %s", key)
	}
	value, err := payloadFloat(obj, "value")
	if err != nil {
		return 0, fmt.Errorf("payload %s: %w", key, err)
	}
	scale, _ := obj["scale"].(string)
	return convert(value, scale)
}
