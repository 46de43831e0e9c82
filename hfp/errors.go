package hfp

import "errors"

// Sentinel errors of this package, named in the same flat style the
// teacher state machine uses for its own failure modes. NewMachine returns
// ErrCollaboratorsRequired and an illegal transition panics with
// ErrInvalidStateTransition; ErrMachineClosed, ErrMachineBusy,
// ErrUnknownPeer and ErrNoActiveCall are declared but no function here
// returns them.
var (
	ErrInvalidStateTransition = errors.New("hfp: invalid state transition")
	ErrMachineClosed          = errors.New("hfp: machine closed")
	ErrMachineBusy            = errors.New("hfp: machine busy")
	ErrUnknownPeer            = errors.New("hfp: unknown peer")
	ErrCollaboratorsRequired  = errors.New("hfp: native, system and service collaborators are required")
	ErrNoActiveCall           = errors.New("hfp: no active call to attach virtual call to")

	errNotDigits = errors.New("hfp: not a digit string")
)
