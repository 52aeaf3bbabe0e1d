package entity

import (
	"context"
	"strings"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/units"
)

// Hub defaults for climate entities that do not report their range.
const (
	defaultMinTemp = 7.0
	defaultMaxTemp = 35.0
)

// ThermostatReading is one consistent snapshot of a thermostat, all
// temperatures in Celsius.
type ThermostatReading struct {
	State   *domain.State
	Current *float64
	Target  *float64
	Mode    string
	Min     float64
	Max     float64
	Modes   []string
}

// SupportsMode reports whether the device lists mode (case-insensitive) as
// an operation mode.
func (r *ThermostatReading) SupportsMode(mode string) bool {
	for _, m := range r.Modes {
		if strings.EqualFold(m, mode) {
			return true
		}
	}
	return false
}

// HeatOrCool picks "cool" when the room is at or above the requested
// temperature and the device can cool, otherwise "heat".
func (r *ThermostatReading) HeatOrCool(requested float64) string {
	if r.Current != nil && *r.Current >= requested && r.SupportsMode("cool") {
		return "cool"
	}
	return "heat"
}

type Climate struct {
	Entity
}

func (c *Climate) TurnOn(ctx context.Context) error {
	reading, err := c.Reading(ctx)
	if err != nil {
		return err
	}

	mode := "auto"
	if reading.Target != nil {
		mode = reading.HeatOrCool(*reading.Target)
	}
	return c.SetThermostatMode(ctx, mode)
}

func (c *Climate) TurnOff(ctx context.Context) error {
	return c.SetThermostatMode(ctx, "off")
}

// SetThermostatMode switches the operation mode; mode is sent lowercased.
func (c *Climate) SetThermostatMode(ctx context.Context, mode string) error {
	return c.callService(ctx, "climate.set_operation_mode", map[string]any{
		"operation_mode": strings.ToLower(mode),
	})
}

// CurrentTemperature returns the measured temperature in Celsius, or nil
// when the device does not report one.
func (c *Climate) CurrentTemperature(ctx context.Context, st *domain.State) (*float64, error) {
	st, err := c.stateOr(ctx, st)
	if err != nil {
		return nil, err
	}
	return celsiusAttr(st, "current_temperature")
}

// TargetTemperature returns the setpoint in Celsius (nil if unset) and the
// mode normalised to upper case with "idle" read as "off".
func (c *Climate) TargetTemperature(ctx context.Context, st *domain.State) (*float64, string, error) {
	st, err := c.stateOr(ctx, st)
	if err != nil {
		return nil, "", err
	}

	target, err := celsiusAttr(st, "temperature")
	if err != nil {
		return nil, "", err
	}
	mode := strings.ToUpper(strings.ReplaceAll(st.State, "idle", "off"))
	return target, mode, nil
}

// SetTargetTemperature sets the setpoint given in Celsius. A non-empty mode
// is sent alongside it.
func (c *Climate) SetTargetTemperature(ctx context.Context, celsius float64, mode string, st *domain.State) error {
	st, err := c.stateOr(ctx, st)
	if err != nil {
		return err
	}

	data := map[string]any{
		"temperature": units.ConvertTemperature(celsius, units.UnitCelsius, st.String("unit_of_measurement")),
	}
	if mode != "" {
		data["operation_mode"] = mode
	}
	return c.callService(ctx, "climate.set_temperature", data)
}

// Reading fetches the state once and derives everything the thermostat
// handlers need from it.
func (c *Climate) Reading(ctx context.Context) (*ThermostatReading, error) {
	st, err := c.state(ctx)
	if err != nil {
		return nil, err
	}

	r := &ThermostatReading{State: st, Min: defaultMinTemp, Max: defaultMaxTemp}
	if r.Current, err = c.CurrentTemperature(ctx, st); err != nil {
		return nil, err
	}
	if r.Target, r.Mode, err = c.TargetTemperature(ctx, st); err != nil {
		return nil, err
	}
	if v, err := celsiusAttr(st, "min_temp"); err != nil {
		return nil, err
	} else if v != nil {
		r.Min = *v
	}
	if v, err := celsiusAttr(st, "max_temp"); err != nil {
		return nil, err
	} else if v != nil {
		r.Max = *v
	}

	r.Modes = st.Strings("operation_list")
	if len(r.Modes) == 0 {
		r.Modes = st.Strings("hvac_modes")
	}
	return r, nil
}

func celsiusAttr(st *domain.State, key string) (*float64, error) {
	v, err := st.OptionalFloat(key)
	if err != nil || v == nil {
		return nil, err
	}
	c := units.ConvertTemperature(*v, st.String("unit_of_measurement"), units.UnitCelsius)
	return &c, nil
}
