package application

import (
	"context"
	"math"
	"strings"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/entity"
	"alexa-smart-home/internal/units"
)

const stateUnavailable = "unavailable"

// reportState collects every property the endpoint's adapter can read. Power,
// temperature, thermostat and connectivity come from one fetched state; the
// percentage, lock and color temperature getters read the hub themselves. A
// property whose getter fails is left out and the rest are still reported.
func (d *Dispatcher) reportState(ctx context.Context, c *call) (any, error) {
	if c.adapter == nil {
		return nil, domain.InternalError(errNoEndpoint)
	}

	st, err := d.ha.GetState(ctx, c.adapter.EntityID())
	if err != nil {
		return nil, err
	}

	a := c.adapter
	caps := entity.Supports(a)
	skip := func(property string, err error) {
		d.logger.Warn("property not reported", "entity_id", a.EntityID(), "property", property, "error", err)
	}

	if caps.Power {
		c.report(domain.NamespacePower, domain.PropertyPowerState, powerState(st.State))
	}

	if caps.Percentage {
		if pct, err := a.(entity.PercentageController).Percentage(ctx); err != nil {
			skip(domain.PropertyPercentage, err)
		} else {
			v := int(math.Round(pct))
			c.report(domain.NamespacePercentage, domain.PropertyPercentage, v)
			c.report(domain.NamespaceBrightness, domain.PropertyBrightness, v)
		}
	}

	if caps.Temperature {
		if current, err := a.(entity.TemperatureSensor).CurrentTemperature(ctx, st); err != nil {
			skip(domain.PropertyTemperature, err)
		} else if current != nil {
			c.report(domain.NamespaceTemperature, domain.PropertyTemperature, celsius(*current))
		}
	}

	if caps.Thermostat {
		if target, mode, err := a.(entity.ThermostatController).TargetTemperature(ctx, st); err != nil {
			skip(domain.PropertyTargetSetpoint, err)
		} else {
			if target != nil {
				c.report(domain.NamespaceThermostat, domain.PropertyTargetSetpoint, celsius(*target))
			}
			if domain.IsCanonicalMode(mode) {
				c.report(domain.NamespaceThermostat, domain.PropertyThermostatMode, mode)
			}
		}
	}

	if caps.Lock {
		if state, err := a.(entity.LockController).LockState(ctx); err != nil {
			skip(domain.PropertyLockState, err)
		} else {
			c.report(domain.NamespaceLock, domain.PropertyLockState, lockState(state))
		}
	}

	if caps.ColorTemperature && supportedFeatures(st)&domain.LightSupportColorTemp != 0 && st.State == "on" {
		if kelvin, err := a.(entity.ColorTemperatureController).ColorTemperature(ctx); err != nil {
			skip(domain.PropertyColorTemperature, err)
		} else {
			c.report(domain.NamespaceColorTemperature, domain.PropertyColorTemperature, int(math.Round(kelvin)))
		}
	}

	connectivity := "OK"
	if st.State == stateUnavailable {
		connectivity = "UNREACHABLE"
	}
	c.report(domain.NamespaceEndpointHealth, domain.PropertyConnectivity, domain.ConnectivityValue{Value: connectivity})

	return nil, nil
}

func supportedFeatures(st *domain.State) int {
	f, err := st.OptionalFloat("supported_features")
	if err != nil || f == nil {
		return 0
	}
	return int(*f)
}

func powerState(state string) string {
	switch state {
	case "off", "closed", stateUnavailable:
		return "OFF"
	default:
		return "ON"
	}
}

func lockState(state string) string {
	switch strings.ToLower(state) {
	case "locked":
		return entity.LockStateLocked
	case "unlocked":
		return entity.LockStateUnlocked
	default:
		return "JAMMED"
	}
}

func celsius(v float64) domain.TemperatureValue {
	return domain.TemperatureValue{Value: v, Scale: units.ScaleCelsius}
}
