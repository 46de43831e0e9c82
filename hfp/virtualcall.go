package hfp

// initiateScoUsingVirtualVoiceCall starts a synthetic call used to bring
// up SCO audio for app-initiated voice (e.g. an assistant reading a
// message aloud) with no real telephony call backing it. It synthesises
// the DIALING -> ALERTING -> ACTIVE call-state sequence a real outgoing
// call would produce so the peer's own call-state machine proceeds
// normally, then marks the virtual call in progress.
func (m *Machine) initiateScoUsingVirtualVoiceCall() bool {
	if m.system.IsInCall() || m.voiceRecState.started {
		m.log.Error("initiateScoUsingVirtualVoiceCall: call in progress")
		return false
	}
	m.processCallState(CallState{State: CallDialing}, true)
	m.processCallState(CallState{State: CallAlerting}, true)
	m.processCallState(CallState{NumActive: 1, State: CallIdle}, true)
	m.virtualCall = true
	return true
}

// terminateScoUsingVirtualVoiceCall tears a virtual call back down. It is
// a no-op, not an error, when called with no virtual call running: this
// is also how a real incoming/outgoing call, or the audio link dropping
// from AudioOn/AudioDisconnecting back to Connected, cleans up a virtual
// call it superseded.
func (m *Machine) terminateScoUsingVirtualVoiceCall() bool {
	if !m.virtualCall {
		return false
	}
	m.processCallState(CallState{State: CallIdle}, true)
	m.virtualCall = false
	return true
}

// processCallState updates the locally tracked call-state snapshot and
// forwards it to the native layer, with the dialling-out and virtual-call
// bookkeeping the single telephony event stream has to thread through.
func (m *Machine) processCallState(cs CallState, isVirtual bool) {
	m.system.SetNumActiveCall(cs.NumActive)
	m.system.SetNumHeldCall(cs.NumHeld)
	m.system.SetCallState(cs.State)

	if m.atState.dialingOut {
		switch cs.State {
		case CallDialing:
			if _, armed := m.timers[timerDialingOut]; !armed {
				return
			}
			m.service.SetActiveDevice(m.peer)
			m.native.AtResponseCode(m.peer, AtResponseOk, 0)
			m.cancelTimer(timerDialingOut)
		case CallActive, CallIdle:
			m.atState.dialingOut = false
		}
	}

	if isVirtual {
		if m.cur != stateDisconnected {
			m.native.PhoneStateChange(m.peer, cs)
		}
		return
	}

	if cs.NumActive > 0 || cs.NumHeld > 0 || cs.State != CallIdle {
		m.terminateScoUsingVirtualVoiceCall()
	}
	if m.system.CallState() != cs.State {
		m.system.SetCallState(cs.State)
	}
	if !m.virtualCall && m.cur != stateDisconnected {
		m.native.PhoneStateChange(m.peer, cs)
	}
}
