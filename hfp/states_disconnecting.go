package hfp

func init() {
	registerState(stateDef{
		id:     stateDisconnecting,
		enter:  disconnectingEnter,
		exit:   disconnectingExit,
		handle: disconnectingHandle,
	})
}

func disconnectingEnter(m *Machine, from stateID) {
	m.armTimer(timerConnect, m.connectTimeout)
}

func disconnectingExit(m *Machine, to stateID) {
	m.cancelTimer(timerConnect)
}

func disconnectingHandle(m *Machine, msg Message) bool {
	switch msg.Kind {
	case KindConnect, KindConnectAudio, KindDisconnect:
		return false
	case KindConnectTimeout:
		if msg.Peer != m.peer {
			m.log.Errorf("unknown device timeout %s", msg.Peer)
			return true
		}
		m.log.Error("timeout")
		m.transitionTo(stateDisconnected)
		return true
	case KindStackEvent:
		ev, ok := msg.Payload.(StackEvent)
		if !ok || ev.Peer != m.peer {
			m.log.Errorf("stack event device mismatch: %+v", msg.Payload)
			return true
		}
		if ev.Type != EventConnectionStateChanged {
			m.log.Errorf("unexpected event: %+v", ev)
			return true
		}
		switch ev.IntValue {
		case ConnStateDisconnected:
			m.transitionTo(stateDisconnected)
		case ConnStateSlcConnected:
			m.transitionTo(stateConnected)
		default:
			m.log.Errorf("processConnectionEvent: bad state %d", ev.IntValue)
		}
		return true
	default:
		return false
	}
}
