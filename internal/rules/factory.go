package rules

import (
	"context"
	"fmt"
	"time"
)

// step is one executable action behavior within an automation unit.
//
// The variant set is closed by design: switchStep, lightSetStep,
// lightToggleStep, and delayStep. The factory is a total function over the
// descriptor tag space, so "unsupported" is an explicit, testable branch
// rather than a missing case.
type step interface {
	run(ctx context.Context) error
}

// switchStep applies one switch operation to its target.
type switchStep struct {
	sw Switch
	op ActionType
}

func (s switchStep) run(context.Context) error {
	switch s.op {
	case ActionTypeTurnOn:
		return s.sw.TurnOn()
	case ActionTypeTurnOff:
		return s.sw.TurnOff()
	default:
		return s.sw.Toggle()
	}
}

// lightSetStep drives a light to a fixed on/off state.
type lightSetStep struct {
	light Light
	on    bool
}

func (s lightSetStep) run(context.Context) error {
	return s.light.SetState(s.on)
}

// lightToggleStep inverts a light's current state.
type lightToggleStep struct {
	light Light
}

func (s lightToggleStep) run(context.Context) error {
	return s.light.Toggle()
}

// delayStep pauses the action chain. The delay is cancellable: tearing down
// the owning unit aborts any chain waiting inside it.
type delayStep struct {
	d time.Duration
}

func (s delayStep) run(ctx context.Context) error {
	t := time.NewTimer(s.d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// triggerBinding pairs a resolved input handle with the transition that
// should fire the automation. It is inert until attached.
type triggerBinding struct {
	input  BinaryInput
	fireOn TriggerType
}

// attach registers the firing callback on the input and returns the detach
// function. Only the matching transition fires.
func (b triggerBinding) attach(fire func()) (cancel func()) {
	want := b.fireOn == TriggerTypePress
	return b.input.Watch(func(pressed bool) {
		if pressed == want {
			fire()
		}
	})
}

// buildTrigger constructs the trigger behavior for a validated descriptor.
//
// Only input press/release triggers are supported. Other combinations fail
// with ErrUnsupportedTrigger, a designed limitation that must stay an
// explicit rejection, never a silent fallback.
func buildTrigger(t Trigger, res Resolver) (*triggerBinding, error) {
	if t.Source != TriggerSourceInput {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedTrigger, t.Source, t.Type)
	}
	if t.Type != TriggerTypePress && t.Type != TriggerTypeRelease {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedTrigger, t.Source, t.Type)
	}

	input, ok := res.BinaryInput(t.InputID)
	if !ok {
		return nil, fmt.Errorf("%w: input %q", ErrEntityNotFound, t.InputID)
	}
	return &triggerBinding{input: input, fireOn: t.Type}, nil
}

// buildAction constructs the behavior for a validated action descriptor.
// Failures never panic; the caller treats them as "drop this action".
func buildAction(a Action, res Resolver) (step, error) {
	switch a.Source {
	case ActionSourceSwitch:
		sw, ok := res.Switch(a.TargetID)
		if !ok {
			return nil, fmt.Errorf("%w: switch %q", ErrEntityNotFound, a.TargetID)
		}
		switch a.Type {
		case ActionTypeTurnOn, ActionTypeTurnOff, ActionTypeToggle:
			return switchStep{sw: sw, op: a.Type}, nil
		default:
			return nil, fmt.Errorf("%w: switch/%s", ErrUnsupportedAction, a.Type)
		}

	case ActionSourceLight:
		light, ok := res.Light(a.TargetID)
		if !ok {
			return nil, fmt.Errorf("%w: light %q", ErrEntityNotFound, a.TargetID)
		}
		switch a.Type {
		case ActionTypeTurnOn:
			return lightSetStep{light: light, on: true}, nil
		case ActionTypeTurnOff:
			return lightSetStep{light: light, on: false}, nil
		case ActionTypeToggle:
			return lightToggleStep{light: light}, nil
		default:
			return nil, fmt.Errorf("%w: light/%s", ErrUnsupportedAction, a.Type)
		}

	case ActionSourceDelay:
		// Re-verified here even though the descriptor invariant already
		// guarantees it: a zero-length delay is never constructed.
		if a.DelaySeconds == 0 {
			return nil, fmt.Errorf("%w: zero-length delay", ErrUnsupportedAction)
		}
		// Seconds to milliseconds is exact; the input is integral seconds.
		return delayStep{d: time.Duration(a.DelaySeconds) * 1000 * time.Millisecond}, nil

	default:
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedAction, a.Source, a.Type)
	}
}
