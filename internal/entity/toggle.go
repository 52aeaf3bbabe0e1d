package entity

import "context"

// Toggle is a plain on/off entity driven through the generic
// homeassistant.turn_on/turn_off services.
type Toggle struct {
	Entity
}

func (t *Toggle) TurnOn(ctx context.Context) error {
	return t.callService(ctx, "homeassistant.turn_on", nil)
}

func (t *Toggle) TurnOff(ctx context.Context) error {
	return t.callService(ctx, "homeassistant.turn_off", nil)
}

// GarageDoor maps on/off to open/close.
type GarageDoor struct {
	Entity
}

func (g *GarageDoor) TurnOn(ctx context.Context) error {
	return g.callService(ctx, "garage_door.open", nil)
}

func (g *GarageDoor) TurnOff(ctx context.Context) error {
	return g.callService(ctx, "garage_door.close", nil)
}

// Cover maps on/off to open_cover/close_cover.
type Cover struct {
	Entity
}

func (c *Cover) TurnOn(ctx context.Context) error {
	return c.callService(ctx, "cover.open_cover", nil)
}

func (c *Cover) TurnOff(ctx context.Context) error {
	return c.callService(ctx, "cover.close_cover", nil)
}

// Activity covers scripts and scenes. They can only be triggered, so
// turning one off triggers it again.
type Activity struct {
	Entity
}

func (a *Activity) TurnOn(ctx context.Context) error {
	return a.callService(ctx, "homeassistant.turn_on", nil)
}

func (a *Activity) TurnOff(ctx context.Context) error {
	return a.TurnOn(ctx)
}
