// Package units holds the numeric conversions shared by the entity adapters
// and the directive handlers: temperature scales, percentage scaling,
// kelvin/mired and HSV to RGB.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Hub temperature units as reported in unit_of_measurement.
const (
	UnitCelsius    = "°C"
	UnitFahrenheit = "°F"
)

// Assistant temperature scales.
const (
	ScaleCelsius    = "CELSIUS"
	ScaleFahrenheit = "FAHRENHEIT"
	ScaleKelvin     = "KELVIN"
)

// ConvertTemperature converts temp between hub units. An empty unit is
// treated as Celsius.
func ConvertTemperature(temp float64, from, to string) float64 {
	from = normalizeUnit(from)
	to = normalizeUnit(to)
	if from == to {
		return temp
	}
	if from == UnitCelsius {
		return temp*1.8 + 32
	}
	return (temp - 32) / 1.8
}

func normalizeUnit(unit string) string {
	if unit == UnitFahrenheit || strings.EqualFold(unit, "F") {
		return UnitFahrenheit
	}
	return UnitCelsius
}

// ScaleToCelsius converts an absolute temperature in an assistant scale to
// Celsius.
func ScaleToCelsius(value float64, scale string) (float64, error) {
	switch strings.ToUpper(scale) {
	case ScaleCelsius, "":
		return value, nil
	case ScaleFahrenheit:
		return (value - 32) / 1.8, nil
	case ScaleKelvin:
		return value - 273.15, nil
	default:
		return 0, fmt.Errorf("unknown temperature scale %q", scale)
	}
}

// DeltaToCelsius converts a temperature difference in an assistant scale to
// Celsius degrees.
func DeltaToCelsius(delta float64, scale string) (float64, error) {
	switch strings.ToUpper(scale) {
	case ScaleCelsius, ScaleKelvin, "":
		return delta, nil
	case ScaleFahrenheit:
		return delta / 1.8, nil
	default:
		return 0, fmt.Errorf("unknown temperature scale %q", scale)
	}
}

// PercentToBrightness maps [0,100] onto the hub's 0-255 brightness range.
// The result is not rounded.
func PercentToBrightness(pct float64) float64 {
	return pct / 100.0 * 255.0
}

// BrightnessToPercent is the inverse of PercentToBrightness.
func BrightnessToPercent(brightness float64) float64 {
	return brightness / 255.0 * 100.0
}

// MiredToKelvin converts a color temperature in mired to kelvin.
func MiredToKelvin(mired float64) float64 {
	return 1000000.0 / mired
}

// KelvinToMired converts a color temperature in kelvin to mired.
func KelvinToMired(kelvin float64) float64 {
	return 1000000.0 / kelvin
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// HSVToRGB converts hue in degrees and saturation/value in [0,1] to RGB
// components rounded to the nearest integer in [0,255].
func HSVToRGB(hue, saturation, value float64) [3]int {
	r, g, b := hsvToRGB(math.Mod(hue, 360)/360.0, saturation, value)
	return [3]int{toByte(r), toByte(g), toByte(b)}
}

func toByte(c float64) int {
	return int(Clamp(math.Round(c*255), 0, 255))
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	if s == 0 {
		return v, v, v
	}
	if h < 0 {
		h += 1
	}
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
