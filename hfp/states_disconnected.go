package hfp

import "time"

func init() {
	registerState(stateDef{
		id:     stateDisconnected,
		enter:  disconnectedEnter,
		handle: disconnectedHandle,
	})
}

// disconnectedEnter resets every piece of per-connection state that must
// not leak into the next Service Level Connection, and tells the Service
// to drop this Machine once the peer is no longer bonded — the control
// plane has no business holding a goroutine and a queue open for a peer
// the user has forgotten.
func disconnectedEnter(m *Machine, from stateID) {
	m.connectingTimestamp = time.Time{}
	m.atState = atDialogState{}
	m.virtualCall = false
	m.voiceRecState = vrState{}
	m.scoVolume = -1
	m.phonebook.reset()
	m.system.ListenForPhoneState(false)
	m.cancelAllTimers()
	if from != stateDisconnected && !m.service.IsBonded(m.peer) {
		go m.service.RemoveStateMachine(m.peer)
	}
}

func disconnectedHandle(m *Machine, msg Message) bool {
	switch msg.Kind {
	case KindConnect:
		if msg.Peer != m.peer {
			m.log.Errorf("CONNECT for unknown device %s", msg.Peer)
			return true
		}
		if !m.native.ConnectHfp(m.peer) {
			m.log.Errorf("connectHfp(%s) failed", m.peer)
			m.service.OnConnectionStateChanged(m.peer, ConnectionStateDisconnected, ConnectionStateDisconnected)
			return true
		}
		m.transitionTo(stateConnecting)
		return true
	case KindDisconnect:
		return true // ignore
	case KindCallStateChanged, KindDeviceStateChanged:
		m.log.Debugf("ignoring %s in Disconnected", msg.Kind)
		return true
	case KindStackEvent:
		ev, ok := msg.Payload.(StackEvent)
		if !ok || ev.Peer != m.peer {
			m.log.Errorf("stack event device mismatch: %+v", msg.Payload)
			return true
		}
		if ev.Type == EventConnectionStateChanged {
			disconnectedProcessConnectionEvent(m, ev.IntValue)
		}
		return true
	default:
		return false
	}
}

func disconnectedProcessConnectionEvent(m *Machine, state int) {
	switch state {
	case ConnStateDisconnected:
		m.log.Warn("ignore DISCONNECTED event")
	case ConnStateConnected, ConnStateConnecting:
		if m.service.OkToAcceptConnection(m.peer) {
			m.log.Info("accept incoming connection")
			m.transitionTo(stateConnecting)
		} else {
			m.log.Infof("rejected incoming HF %s", m.peer)
			if !m.native.DisconnectHfp(m.peer) {
				m.log.Error("failed to disconnect")
			}
			m.service.OnConnectionStateChanged(m.peer, ConnectionStateDisconnected, ConnectionStateDisconnected)
		}
	case ConnStateDisconnecting:
		m.log.Warn("ignore DISCONNECTING event")
	default:
		m.log.Errorf("incorrect state %d", state)
	}
}
