// Package deletion drives the confirmation flow that drafts an account deletion request.
package deletion

import (
	"errors"
	"fmt"
)

// State is a step of the deletion flow.
type State string

const (
	StateIdle          State = "idle"
	StateConfirmIntent State = "confirm_intent"
	StateConfirmSend   State = "confirm_send"
	StateEmailDrafted  State = "email_drafted"
	StateConfirmLogout State = "confirm_logout"
	StateLoggedOut     State = "logged_out"
	StateCancelled     State = "cancelled"
)

// Terminal reports whether the flow has ended.
func (s State) Terminal() bool {
	return s == StateLoggedOut || s == StateCancelled
}

// Input is a user choice, or the internal signal that the draft was handed off.
type Input string

const (
	InputBegin         Input = "begin"
	InputDelete        Input = "delete"
	InputSendEmail     Input = "send_email"
	InputConfirmLogout Input = "confirm_logout"
	InputCancel        Input = "cancel"

	inputDrafted Input = "drafted"
)

// ParseInput validates a user-supplied input name.
func ParseInput(s string) (Input, error) {
	switch in := Input(s); in {
	case InputBegin, InputDelete, InputSendEmail, InputConfirmLogout, InputCancel:
		return in, nil
	default:
		return "", fmt.Errorf("unknown input %q", s)
	}
}

// Effect is the side effect a transition asks the caller to perform.
type Effect int

const (
	EffectNone Effect = iota
	EffectComposeEmail
	EffectLogout
)

func (e Effect) String() string {
	switch e {
	case EffectComposeEmail:
		return "compose_email"
	case EffectLogout:
		return "logout"
	default:
		return "none"
	}
}

// ErrInvalidTransition indicates the input is not offered in the current state.
var ErrInvalidTransition = errors.New("invalid deletion transition")

// Transition maps (state, input) to the next state and the effect to perform.
// It has no side effects.
func Transition(s State, in Input) (State, Effect, error) {
	switch s {
	case StateIdle, StateLoggedOut, StateCancelled:
		if in == InputBegin {
			return StateConfirmIntent, EffectNone, nil
		}
	case StateConfirmIntent:
		switch in {
		case InputDelete:
			return StateConfirmSend, EffectNone, nil
		case InputCancel:
			return StateCancelled, EffectNone, nil
		}
	case StateConfirmSend:
		switch in {
		case InputSendEmail:
			return StateEmailDrafted, EffectComposeEmail, nil
		case InputCancel:
			return StateCancelled, EffectNone, nil
		}
	case StateEmailDrafted:
		if in == inputDrafted {
			return StateConfirmLogout, EffectNone, nil
		}
	case StateConfirmLogout:
		switch in {
		case InputConfirmLogout:
			return StateLoggedOut, EffectLogout, nil
		case InputCancel:
			return StateCancelled, EffectNone, nil
		}
	}
	return s, EffectNone, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, in, s)
}
