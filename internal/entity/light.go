package entity

import (
	"context"
	"fmt"

	"alexa-smart-home/internal/units"
)

type Light struct {
	Toggle
}

// Percentage is the current brightness scaled to [0,100]. A light that is
// off reports no brightness and reads as 0.
func (l *Light) Percentage(ctx context.Context) (float64, error) {
	st, err := l.state(ctx)
	if err != nil {
		return 0, err
	}

	brightness, err := st.OptionalFloat("brightness")
	if err != nil {
		return 0, err
	}
	if brightness == nil {
		if st.State == "off" {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: missing attribute \"brightness\"", l.id)
	}

	return units.BrightnessToPercent(*brightness), nil
}

func (l *Light) SetPercentage(ctx context.Context, pct float64) error {
	return l.callService(ctx, "light.turn_on", map[string]any{
		"brightness": units.PercentToBrightness(pct),
	})
}

// ColorTemperature returns the current color temperature in kelvin.
func (l *Light) ColorTemperature(ctx context.Context) (float64, error) {
	st, err := l.state(ctx)
	if err != nil {
		return 0, err
	}

	mired, err := st.Float("color_temp")
	if err != nil {
		return 0, err
	}
	if mired == 0 {
		return 0, fmt.Errorf("%s: color_temp is zero", l.id)
	}

	return units.MiredToKelvin(mired), nil
}

func (l *Light) SetColorTemperature(ctx context.Context, kelvin float64) error {
	if kelvin <= 0 {
		return fmt.Errorf("invalid color temperature %gK", kelvin)
	}
	return l.callService(ctx, "light.turn_on", map[string]any{
		"color_temp": units.KelvinToMired(kelvin),
	})
}

// SetColor takes hue in degrees and saturation/brightness in [0,1].
func (l *Light) SetColor(ctx context.Context, hue, saturation, brightness float64) error {
	rgb := units.HSVToRGB(hue, saturation, brightness)
	return l.callService(ctx, "light.turn_on", map[string]any{
		"rgb_color": []int{rgb[0], rgb[1], rgb[2]},
	})
}
