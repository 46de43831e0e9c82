package hfp

import "time"

// Default timer durations, named after the constants the legacy Android
// HFP state machine hard-coded; internal/config lets a deployment override
// them.
const (
	DefaultConnectTimeout     = 30 * time.Second
	DefaultDialingOutTimeout  = 10 * time.Second
	DefaultStartVrTimeout     = 5 * time.Second
	DefaultClccRspTimeout     = 5 * time.Second
)

// timerKind identifies one of the four timers a Machine can have armed at
// once. Unlike the message Kind it produces, a timer is identified by kind
// alone: each Machine instance only ever has one peer, so no further key is
// needed to disambiguate timerKind from Kind.
type timerKind int

const (
	timerConnect timerKind = iota
	timerDialingOut
	timerStartVr
	timerClccRsp
)

func (t timerKind) messageKind() Kind {
	switch t {
	case timerConnect:
		return KindConnectTimeout
	case timerDialingOut:
		return KindDialingOutTimeout
	case timerStartVr:
		return KindStartVrTimeout
	case timerClccRsp:
		return KindClccRspTimeout
	default:
		panic("hfp: unknown timer kind")
	}
}

// armTimer starts (or restarts) the named timer so that it posts its
// associated message to the Machine's own queue after d elapses. Arming an
// already-armed timer of the same kind cancels the previous one first, so
// only the most recently requested deadline can ever fire.
func (m *Machine) armTimer(kind timerKind, d time.Duration) {
	m.cancelTimer(kind)
	mk := kind.messageKind()
	t := time.AfterFunc(d, func() {
		m.Send(Message{Kind: mk, Peer: m.peer})
	})
	m.timers[kind] = t
}

// cancelTimer stops the named timer if armed. It is always safe to call on
// a timer that isn't armed.
func (m *Machine) cancelTimer(kind timerKind) {
	if t, ok := m.timers[kind]; ok {
		t.Stop()
		delete(m.timers, kind)
	}
}

// cancelAllTimers stops every timer currently armed for this Machine, used
// when entering Disconnected and on Destroy.
func (m *Machine) cancelAllTimers() {
	for kind := range m.timers {
		m.cancelTimer(kind)
	}
}
