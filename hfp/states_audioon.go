package hfp

func init() {
	registerState(stateDef{
		id:                stateAudioOn,
		enter:             audioOnEnter,
		exit:              audioOnExit,
		handle:            audioOnHandle,
		processAudioEvent: audioOnProcessAudioEvent,
	})
}

func audioOnEnter(m *Machine, from stateID) {
	m.removeDeferredKind(KindConnectAudio)
	if m.service.ActiveDevice() != m.peer {
		m.service.SetActiveDevice(m.peer)
	}
	m.setAudioParameters()
	m.system.SetBluetoothScoOn(true)
}

func audioOnExit(m *Machine, to stateID) {
	m.system.SetBluetoothScoOn(false)
}

func audioOnHandle(m *Machine, msg Message) bool {
	switch msg.Kind {
	case KindConnect:
		m.log.Warnf("CONNECT ignored, device=%s currentDevice=%s", msg.Peer, m.peer)
		return true
	case KindDisconnect:
		if msg.Peer != m.peer {
			m.log.Warnf("DISCONNECT, device %s not connected", msg.Peer)
			return true
		}
		if !m.native.DisconnectAudio(m.peer) {
			m.log.Warnf("DISCONNECT failed to tear down SCO, device=%s", m.peer)
		}
		m.deferred = append(m.deferred, Message{Kind: KindDisconnect, Peer: m.peer})
		m.transitionTo(stateAudioDisconnecting)
		return true
	case KindConnectAudio:
		if msg.Peer != m.peer {
			m.log.Warnf("CONNECT_AUDIO device is not connected %s", msg.Peer)
			return true
		}
		m.log.Warnf("CONNECT_AUDIO audio is already connected %s", msg.Peer)
		return true
	case KindDisconnectAudio:
		if msg.Peer != m.peer {
			m.log.Warnf("DISCONNECT_AUDIO failed, device=%s currentDevice=%s", msg.Peer, m.peer)
			return true
		}
		if m.native.DisconnectAudio(m.peer) {
			m.log.Debugf("DISCONNECT_AUDIO, device=%s", m.peer)
			m.transitionTo(stateAudioDisconnecting)
		} else {
			m.log.Warnf("DISCONNECT_AUDIO failed, device=%s", m.peer)
		}
		return true
	case KindIntentScoVolumeChanged:
		m.processIntentScoVolume(msg.Arg1)
		return true
	case KindStackEvent:
		if ev, ok := msg.Payload.(StackEvent); ok && ev.Peer == m.peer && ev.Type == EventWbs {
			m.log.Errorf("cannot change WBS state when audio is connected: %+v", ev)
			return true
		}
		return connectedBaseHandle(m, msg)
	default:
		return connectedBaseHandle(m, msg)
	}
}

func audioOnProcessAudioEvent(m *Machine, state int) {
	switch state {
	case AudioStateEventDisconnected:
		m.log.Info("processAudioEvent: audio disconnected by remote")
		m.transitionTo(stateConnected)
	case AudioStateEventDisconnecting:
		m.log.Info("processAudioEvent: audio being disconnected by remote")
		m.transitionTo(stateAudioDisconnecting)
	default:
		m.log.Errorf("processAudioEvent: bad state %d", state)
	}
}

// processIntentScoVolume forwards a stream-volume broadcast to the native
// layer, but only when the value actually changed — this is the relay the
// data model calls out as a read of state rather than the object of any
// invariant, so it stays a plain comparison rather than something the
// machine reasons about.
func (m *Machine) processIntentScoVolume(volumeValue int) {
	if m.scoVolume == volumeValue {
		return
	}
	m.scoVolume = volumeValue
	m.native.SetVolume(m.peer, VolumeTypeSpeaker, volumeValue)
}
