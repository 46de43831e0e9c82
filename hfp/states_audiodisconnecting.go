package hfp

// AudioDisconnecting reports AudioStateConnected for as long as it is
// active, not AudioStateDisconnecting — there is no public "disconnecting"
// audio state in the data model this mirrors, so a client watching
// GetAudioState sees AudioOn hold right up until the native ack lands and
// the machine moves to Connected (or bounces back to AudioOn if the
// native stack refuses the teardown).
func init() {
	registerState(stateDef{
		id:                stateAudioDisconnecting,
		enter:             audioDisconnectingEnter,
		exit:              audioDisconnectingExit,
		handle:            audioDisconnectingHandle,
		processAudioEvent: audioDisconnectingProcessAudioEvent,
	})
}

func audioDisconnectingEnter(m *Machine, from stateID) {
	m.armTimer(timerConnect, m.connectTimeout)
}

func audioDisconnectingExit(m *Machine, to stateID) {
	m.cancelTimer(timerConnect)
}

func audioDisconnectingHandle(m *Machine, msg Message) bool {
	switch msg.Kind {
	case KindConnect, KindDisconnect, KindConnectAudio, KindDisconnectAudio:
		return false
	case KindConnectTimeout:
		if msg.Peer != m.peer {
			m.log.Warnf("CONNECT_TIMEOUT for unknown device %s", msg.Peer)
			return true
		}
		m.log.Warn("CONNECT_TIMEOUT")
		m.transitionTo(stateConnected)
		return true
	default:
		return connectedBaseHandle(m, msg)
	}
}

func audioDisconnectingProcessAudioEvent(m *Machine, state int) {
	switch state {
	case AudioStateEventDisconnected:
		m.log.Info("processAudioEvent: audio disconnected")
		m.transitionTo(stateConnected)
	case AudioStateEventDisconnecting:
		// ignore
	case AudioStateEventConnected:
		m.log.Warn("processAudioEvent: audio disconnection failed")
		m.transitionTo(stateAudioOn)
	case AudioStateEventConnecting:
		// ignore, see if it goes to connected, otherwise times out
	default:
		m.log.Errorf("processAudioEvent: bad state %d", state)
	}
}
