package entity_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/entity"
)

type serviceCall struct {
	Service string
	Data    map[string]any
	Wait    bool
}

type fakeHub struct {
	states map[string]*domain.State
	calls  []serviceCall
}

func newFakeHub(states ...*domain.State) *fakeHub {
	h := &fakeHub{states: make(map[string]*domain.State)}
	for _, st := range states {
		h.states[st.EntityID] = st
	}
	return h
}

func (h *fakeHub) GetState(_ context.Context, entityID string) (*domain.State, error) {
	st, ok := h.states[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: status 404", domain.ErrHubCommunication)
	}
	return st, nil
}

func (h *fakeHub) GetStates(_ context.Context) ([]domain.State, error) {
	out := make([]domain.State, 0, len(h.states))
	for _, st := range h.states {
		out = append(out, *st)
	}
	return out, nil
}

func (h *fakeHub) CallService(_ context.Context, service string, data map[string]any, wait bool) error {
	h.calls = append(h.calls, serviceCall{Service: service, Data: data, Wait: wait})
	return nil
}

func (h *fakeHub) lastCall(t *testing.T) serviceCall {
	t.Helper()
	if len(h.calls) == 0 {
		t.Fatal("no service call recorded")
	}
	return h.calls[len(h.calls)-1]
}

func mustNew(t *testing.T, ha entity.HomeAssistant, id string, features int) entity.Adapter {
	t.Helper()
	a, err := entity.New(ha, id, features)
	if err != nil {
		t.Fatalf("entity.New(%s): %v", id, err)
	}
	return a
}

func TestNew_UnsupportedDomain(t *testing.T) {
	_, err := entity.New(newFakeHub(), "vacuum.robot", 0)

	var de *domain.DirectiveError
	if !errors.As(err, &de) {
		t.Fatalf("expected DirectiveError, got %v", err)
	}
	if de.Kind != domain.KindUnsupportedDomain || de.Domain != "vacuum" {
		t.Errorf("got kind %s domain %q", de.Kind, de.Domain)
	}
}

func TestNew_AllKnownDomains(t *testing.T) {
	got := entity.Domains()
	if len(got) != len(domain.KnownDomains) {
		t.Fatalf("Domains: got %d, want %d", len(got), len(domain.KnownDomains))
	}
	for _, d := range domain.KnownDomains {
		a := mustNew(t, newFakeHub(), string(d)+".x", 0)
		if a.Domain() != d {
			t.Errorf("Domain: got %s, want %s", a.Domain(), d)
		}
	}
}

func TestCapabilities_PerDomain(t *testing.T) {
	const (
		base   = domain.NamespaceAlexa
		power  = domain.NamespacePower
		pct    = domain.NamespacePercentage
		bright = domain.NamespaceBrightness
		temp   = domain.NamespaceTemperature
		thermo = domain.NamespaceThermostat
		lock   = domain.NamespaceLock
		color  = domain.NamespaceColor
		ct     = domain.NamespaceColorTemperature
		health = domain.NamespaceEndpointHealth
	)

	tests := []struct {
		id       string
		features int
		want     []string
	}{
		{"switch.a", 0, []string{base, power, health}},
		{"input_boolean.a", 0, []string{base, power, health}},
		{"group.a", 0, []string{base, power, health}},
		{"alert.a", 0, []string{base, power, health}},
		{"automation.a", 0, []string{base, power, health}},
		{"garage_door.a", 0, []string{base, power, health}},
		{"cover.a", 0, []string{base, power, health}},
		{"script.a", 0, []string{base, power, health}},
		{"scene.a", 0, []string{base, power, health}},
		{"fan.a", 0, []string{base, power, pct, bright, health}},
		{"media_player.a", 0, []string{base, power, pct, bright, health}},
		{"input_slider.a", 0, []string{base, pct, bright, health}},
		{"lock.a", 0, []string{base, lock, health}},
		{"climate.a", 0, []string{base, power, temp, thermo, health}},
		{"light.plain", 0, []string{base, power, pct, bright, health}},
		{"light.rgb", domain.LightSupportRGBColor, []string{base, power, pct, bright, color, health}},
		{"light.ct", domain.LightSupportColorTemp, []string{base, power, pct, bright, ct, health}},
		{"light.full", domain.LightSupportRGBColor | domain.LightSupportColorTemp | domain.LightSupportXYColor, []string{base, power, pct, bright, color, ct, health}},
		{"fan.flags_ignored", domain.LightSupportRGBColor | domain.LightSupportColorTemp, []string{base, power, pct, bright, health}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			a := mustNew(t, newFakeHub(), tt.id, tt.features)

			caps := entity.Capabilities(a)
			got := make([]string, 0, len(caps))
			for _, c := range caps {
				got = append(got, c.Interface)
				if c.Version != "3" || c.Type != "AlexaInterface" {
					t.Errorf("%s: bad version/type %s/%s", c.Interface, c.Version, c.Type)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("capabilities:\n got  %v\n want %v", got, tt.want)
			}
		})
	}
}

func TestCapabilities_Properties(t *testing.T) {
	a := mustNew(t, newFakeHub(), "light.full", domain.LightSupportRGBColor|domain.LightSupportColorTemp)

	for _, c := range entity.Capabilities(a) {
		switch c.Interface {
		case domain.NamespaceAlexa:
			if c.Properties != nil {
				t.Error("base interface should carry no properties")
			}
		case domain.NamespaceColor:
			if c.Properties.Retrievable || c.Properties.ProactivelyReported {
				t.Error("color has no getter and must not be retrievable")
			}
		default:
			if c.Properties == nil || !c.Properties.Retrievable || !c.Properties.ProactivelyReported {
				t.Errorf("%s: expected retrievable properties", c.Interface)
			}
		}
	}
}

func TestLight_PercentageRoundTrip(t *testing.T) {
	st := &domain.State{EntityID: "light.desk", State: "on", Attributes: map[string]any{}}
	hub := newFakeHub(st)
	light := mustNew(t, hub, "light.desk", 0).(entity.PercentageController)
	ctx := context.Background()

	for p := 0.0; p <= 100; p += 2.5 {
		if err := light.SetPercentage(ctx, p); err != nil {
			t.Fatalf("SetPercentage(%v): %v", p, err)
		}
		call := hub.lastCall(t)
		if call.Service != "light.turn_on" {
			t.Fatalf("service: got %s", call.Service)
		}
		st.Attributes["brightness"] = call.Data["brightness"]

		got, err := light.Percentage(ctx)
		if err != nil {
			t.Fatalf("Percentage: %v", err)
		}
		if math.Abs(got-p) > 1e-9 {
			t.Errorf("round trip of %v: got %v", p, got)
		}
	}
}

func TestLight_OffReadsZero(t *testing.T) {
	hub := newFakeHub(&domain.State{EntityID: "light.desk", State: "off", Attributes: map[string]any{"brightness": nil}})
	light := mustNew(t, hub, "light.desk", 0).(entity.PercentageController)

	got, err := light.Percentage(context.Background())
	if err != nil || got != 0 {
		t.Errorf("got %v, %v; want 0, nil", got, err)
	}
}

func TestLight_ColorTemperatureRoundTrip(t *testing.T) {
	st := &domain.State{EntityID: "light.desk", State: "on", Attributes: map[string]any{}}
	hub := newFakeHub(st)
	light := mustNew(t, hub, "light.desk", domain.LightSupportColorTemp).(entity.ColorTemperatureController)
	ctx := context.Background()

	for _, mired := range []float64{153, 250, 370, 500} {
		k := 1000000 / mired
		if err := light.SetColorTemperature(ctx, k); err != nil {
			t.Fatalf("SetColorTemperature: %v", err)
		}
		st.Attributes["color_temp"] = hub.lastCall(t).Data["color_temp"]

		got, err := light.ColorTemperature(ctx)
		if err != nil {
			t.Fatalf("ColorTemperature: %v", err)
		}
		if math.Abs(got-k) > 1e-6 {
			t.Errorf("round trip of %vK: got %v", k, got)
		}
	}
}

func TestLight_SetColor(t *testing.T) {
	hub := newFakeHub()
	light := mustNew(t, hub, "light.desk", domain.LightSupportRGBColor).(entity.ColorController)

	if err := light.SetColor(context.Background(), 240, 1, 0.5); err != nil {
		t.Fatalf("SetColor: %v", err)
	}

	call := hub.lastCall(t)
	want := []int{0, 0, 128}
	if !reflect.DeepEqual(call.Data["rgb_color"], want) {
		t.Errorf("rgb_color: got %v, want %v", call.Data["rgb_color"], want)
	}
	if call.Data["entity_id"] != "light.desk" {
		t.Errorf("entity_id: got %v", call.Data["entity_id"])
	}
}

func TestFan_SpeedBuckets(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "off"},
		{1, "low"},
		{33, "low"},
		{34, "medium"},
		{66, "medium"},
		{67, "high"},
		{100, "high"},
	}

	for _, tt := range tests {
		if got := entity.FanSpeed(tt.pct); got != tt.want {
			t.Errorf("FanSpeed(%v): got %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestFan_BucketIdempotence(t *testing.T) {
	st := &domain.State{EntityID: "fan.ceiling", State: "on", Attributes: map[string]any{}}
	hub := newFakeHub(st)
	fan := mustNew(t, hub, "fan.ceiling", 0).(entity.PercentageController)
	ctx := context.Background()

	for _, pct := range []float64{0, 33, 66, 100} {
		if err := fan.SetPercentage(ctx, pct); err != nil {
			t.Fatalf("SetPercentage: %v", err)
		}
		call := hub.lastCall(t)
		if call.Service != "fan.set_speed" {
			t.Fatalf("service: got %s", call.Service)
		}
		st.Attributes["speed"] = call.Data["speed"]

		got, err := fan.Percentage(ctx)
		if err != nil {
			t.Fatalf("Percentage: %v", err)
		}
		if got != pct {
			t.Errorf("set %v read back %v", pct, got)
		}
	}

	st.Attributes["speed"] = "turbo"
	if _, err := fan.Percentage(ctx); err == nil {
		t.Error("expected error for unknown speed")
	}
}

func TestMediaPlayer_Volume(t *testing.T) {
	hub := newFakeHub(&domain.State{EntityID: "media_player.tv", State: "on", Attributes: map[string]any{"volume_level": 0.42}})
	mp := mustNew(t, hub, "media_player.tv", 0).(entity.PercentageController)
	ctx := context.Background()

	got, err := mp.Percentage(ctx)
	if err != nil || math.Abs(got-42) > 1e-9 {
		t.Errorf("Percentage: got %v, %v", got, err)
	}

	if err := mp.SetPercentage(ctx, 25); err != nil {
		t.Fatalf("SetPercentage: %v", err)
	}
	call := hub.lastCall(t)
	if call.Service != "media_player.volume_set" || call.Data["volume_level"] != 0.25 {
		t.Errorf("got %s %v", call.Service, call.Data)
	}
}

func TestInputSlider(t *testing.T) {
	hub := newFakeHub(&domain.State{
		EntityID:   "input_slider.target",
		State:      "15",
		Attributes: map[string]any{"min": 10.0, "max": 30.0, "step": 0.5},
	})
	slider := mustNew(t, hub, "input_slider.target", 0).(entity.PercentageController)
	ctx := context.Background()

	got, err := slider.Percentage(ctx)
	if err != nil || got != 25 {
		t.Errorf("Percentage: got %v, %v; want 25", got, err)
	}

	// 33% of a 20-wide range is 6.6, nearest 0.5 step is 6.5.
	if err := slider.SetPercentage(ctx, 33); err != nil {
		t.Fatalf("SetPercentage: %v", err)
	}
	call := hub.lastCall(t)
	if call.Service != "input_slider.select_value" {
		t.Errorf("service: got %s", call.Service)
	}
	if v := call.Data["value"].(float64); math.Abs(v-16.5) > 1e-9 {
		t.Errorf("value: got %v, want 16.5", v)
	}

	if _, ok := slider.(entity.PowerController); ok {
		t.Error("input_slider must not be a power controller")
	}
}

func TestLock(t *testing.T) {
	hub := newFakeHub(&domain.State{EntityID: "lock.front", State: "locked"})
	lock := mustNew(t, hub, "lock.front", 0).(entity.LockController)
	ctx := context.Background()

	state, err := lock.LockState(ctx)
	if err != nil || state != "locked" {
		t.Errorf("LockState: got %q, %v", state, err)
	}

	if err := lock.SetLockState(ctx, entity.LockStateUnlocked); err != nil {
		t.Fatalf("SetLockState: %v", err)
	}
	if got := hub.lastCall(t).Service; got != "lock.unlock" {
		t.Errorf("service: got %s", got)
	}
	if err := lock.SetLockState(ctx, entity.LockStateLocked); err != nil {
		t.Fatalf("SetLockState: %v", err)
	}
	if got := hub.lastCall(t).Service; got != "lock.lock" {
		t.Errorf("service: got %s", got)
	}
	if err := lock.SetLockState(ctx, "JAMMED"); err == nil {
		t.Error("expected error for JAMMED")
	}
}

func TestPowerServices(t *testing.T) {
	tests := []struct {
		id     string
		onSvc  string
		offSvc string
	}{
		{"switch.a", "homeassistant.turn_on", "homeassistant.turn_off"},
		{"light.a", "homeassistant.turn_on", "homeassistant.turn_off"},
		{"garage_door.a", "garage_door.open", "garage_door.close"},
		{"cover.a", "cover.open_cover", "cover.close_cover"},
		{"script.a", "homeassistant.turn_on", "homeassistant.turn_on"},
		{"scene.a", "homeassistant.turn_on", "homeassistant.turn_on"},
		{"climate.a", "climate.set_operation_mode", "climate.set_operation_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			hub := newFakeHub(&domain.State{EntityID: tt.id, State: "off", Attributes: map[string]any{}})
			p := mustNew(t, hub, tt.id, 0).(entity.PowerController)

			if err := p.TurnOn(context.Background()); err != nil {
				t.Fatalf("TurnOn: %v", err)
			}
			if got := hub.lastCall(t).Service; got != tt.onSvc {
				t.Errorf("on: got %s, want %s", got, tt.onSvc)
			}
			if err := p.TurnOff(context.Background()); err != nil {
				t.Fatalf("TurnOff: %v", err)
			}
			if got := hub.lastCall(t).Service; got != tt.offSvc {
				t.Errorf("off: got %s, want %s", got, tt.offSvc)
			}
		})
	}
}

func TestServiceBodiesAreFresh(t *testing.T) {
	hub := newFakeHub()
	a := mustNew(t, hub, "switch.one", 0).(entity.PowerController)
	b := mustNew(t, hub, "switch.two", 0).(entity.PowerController)

	_ = a.TurnOn(context.Background())
	_ = b.TurnOn(context.Background())

	if hub.calls[0].Data["entity_id"] != "switch.one" || hub.calls[1].Data["entity_id"] != "switch.two" {
		t.Errorf("bodies shared between calls: %v", hub.calls)
	}
	if hub.calls[0].Wait {
		t.Error("service calls should not wait for the hub")
	}
}
