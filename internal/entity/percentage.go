package entity

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Fan speeds and the percentage each one reads back as.
var fanSpeedPercent = map[string]float64{
	"off":    0,
	"low":    33,
	"medium": 66,
	"high":   100,
}

// FanSpeed buckets a percentage into one of the hub's discrete fan speeds.
func FanSpeed(pct float64) string {
	switch {
	case pct <= 0:
		return "off"
	case pct <= 33:
		return "low"
	case pct <= 66:
		return "medium"
	default:
		return "high"
	}
}

type Fan struct {
	Toggle
}

// Percentage is lossy: only the four bucket values come back.
func (f *Fan) Percentage(ctx context.Context) (float64, error) {
	st, err := f.state(ctx)
	if err != nil {
		return 0, err
	}

	speed := st.String("speed")
	if speed == "" && st.State == "off" {
		return 0, nil
	}

	pct, ok := fanSpeedPercent[speed]
	if !ok {
		return 0, fmt.Errorf("%s: unknown fan speed %q", f.id, speed)
	}
	return pct, nil
}

func (f *Fan) SetPercentage(ctx context.Context, pct float64) error {
	return f.callService(ctx, "fan.set_speed", map[string]any{
		"speed": FanSpeed(pct),
	})
}

// MediaPlayer exposes volume as its percentage.
type MediaPlayer struct {
	Toggle
}

func (m *MediaPlayer) Percentage(ctx context.Context) (float64, error) {
	st, err := m.state(ctx)
	if err != nil {
		return 0, err
	}

	vol, err := st.Float("volume_level")
	if err != nil {
		return 0, err
	}
	return vol * 100.0, nil
}

func (m *MediaPlayer) SetPercentage(ctx context.Context, pct float64) error {
	return m.callService(ctx, "media_player.volume_set", map[string]any{
		"volume_level": pct / 100.0,
	})
}

// InputSlider rescales its value linearly between the slider's min and max.
type InputSlider struct {
	Entity
}

type sliderRange struct {
	min, max, step float64
}

func (s *InputSlider) bounds(ctx context.Context) (float64, sliderRange, error) {
	st, err := s.state(ctx)
	if err != nil {
		return 0, sliderRange{}, err
	}

	var r sliderRange
	if r.min, err = st.Float("min"); err != nil {
		return 0, r, err
	}
	if r.max, err = st.Float("max"); err != nil {
		return 0, r, err
	}
	if r.max <= r.min {
		return 0, r, fmt.Errorf("%s: invalid range [%g, %g]", s.id, r.min, r.max)
	}
	if step, err := st.OptionalFloat("step"); err == nil && step != nil {
		r.step = *step
	}

	value, err := strconv.ParseFloat(st.State, 64)
	if err != nil {
		value = math.NaN()
	}
	return value, r, nil
}

func (s *InputSlider) Percentage(ctx context.Context) (float64, error) {
	value, r, err := s.bounds(ctx)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) {
		return 0, fmt.Errorf("%s: state is not numeric", s.id)
	}
	return (value - r.min) * 100.0 / (r.max - r.min), nil
}

// SetPercentage rounds to the nearest configured step before converting
// back to the slider's native value.
func (s *InputSlider) SetPercentage(ctx context.Context, pct float64) error {
	_, r, err := s.bounds(ctx)
	if err != nil {
		return err
	}
	if r.step <= 0 {
		return fmt.Errorf("%s: missing or invalid step", s.id)
	}

	scaled := pct * (r.max - r.min) / 100.0
	rounded := r.step * math.Round(scaled/r.step)

	return s.callService(ctx, "input_slider.select_value", map[string]any{
		"value": rounded + r.min,
	})
}
