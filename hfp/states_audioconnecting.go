package hfp

func init() {
	registerState(stateDef{
		id:                stateAudioConnecting,
		enter:             audioConnectingEnter,
		exit:              audioConnectingExit,
		handle:            audioConnectingHandle,
		processAudioEvent: audioConnectingProcessAudioEvent,
	})
}

func audioConnectingEnter(m *Machine, from stateID) {
	m.armTimer(timerConnect, m.connectTimeout)
}

func audioConnectingExit(m *Machine, to stateID) {
	m.cancelTimer(timerConnect)
}

func audioConnectingHandle(m *Machine, msg Message) bool {
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

func audioConnectingProcessAudioEvent(m *Machine, state int) {
	switch state {
	case AudioStateEventDisconnected:
		m.log.Warn("processAudioEvent: audio connection failed")
		m.transitionTo(stateConnected)
	case AudioStateEventConnecting:
		// ignore, already in audio connecting state
	case AudioStateEventDisconnecting:
		// ignore, there is no public AudioStateDisconnecting for this path
	case AudioStateEventConnected:
		m.log.Info("processAudioEvent: audio connected")
		m.transitionTo(stateAudioOn)
	default:
		m.log.Errorf("processAudioEvent: bad state %d", state)
	}
}
