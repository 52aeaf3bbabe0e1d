package entity

import (
	"context"
	"fmt"
)

const (
	LockStateLocked   = "LOCKED"
	LockStateUnlocked = "UNLOCKED"
)

type Lock struct {
	Entity
}

// LockState returns the hub's raw state string, e.g. "locked".
func (l *Lock) LockState(ctx context.Context) (string, error) {
	st, err := l.state(ctx)
	if err != nil {
		return "", err
	}
	return st.State, nil
}

func (l *Lock) SetLockState(ctx context.Context, state string) error {
	switch state {
	case LockStateLocked:
		return l.callService(ctx, "lock.lock", nil)
	case LockStateUnlocked:
		return l.callService(ctx, "lock.unlock", nil)
	default:
		return fmt.Errorf("unsupported lock state %q", state)
	}
}
