package hfp

import "context"

// vrState tracks the local voice-recognition sub-protocol: whether VR is
// actually running, and whether this machine is waiting on this gateway's
// own app to confirm VR started after the peer asked for it.
type vrState struct {
	started bool
	waiting bool
}

func (v vrState) String() string {
	switch {
	case v.started:
		return "started"
	case v.waiting:
		return "waiting"
	default:
		return "stopped"
	}
}

// processVrEvent handles a VrStateChanged stack event, i.e. the peer
// telling this gateway it started or stopped voice recognition on its own
// initiative (as opposed to in response to KindVoiceRecognitionStart).
func (m *Machine) processVrEvent(state int) {
	switch state {
	case VrStateStarted:
		if !m.virtualCall && !m.system.IsInCall() {
			if err := m.service.StartVoiceCommandActivity(); err != nil {
				m.native.AtResponseCode(m.peer, AtResponseError, 0)
				return
			}
			m.expectVoiceRecognition()
		} else {
			m.native.AtResponseCode(m.peer, AtResponseError, 0)
		}
	case VrStateStopped:
		if m.voiceRecState.started || m.voiceRecState.waiting {
			m.native.AtResponseCode(m.peer, AtResponseOk, 0)
			m.voiceRecState.started = false
			m.voiceRecState.waiting = false
			if !m.system.IsInCall() && m.cur.audioState() != AudioStateDisconnected {
				m.native.DisconnectAudio(m.peer)
				m.system.SetAudioParameters(map[string]string{"A2dpSuspended": "false"})
			}
		} else {
			m.native.AtResponseCode(m.peer, AtResponseError, 0)
		}
	default:
		m.log.Errorf("bad voice recognition state: %d", state)
	}
}

// processLocalVrEvent handles KindVoiceRecognitionStart/Stop, i.e. this
// gateway's own app asking to start or stop voice recognition.
func (m *Machine) processLocalVrEvent(state int) {
	if state == VrStateStarted {
		if m.voiceRecState.started || m.system.IsInCall() {
			m.log.Errorf("voice recognition started when call active, inCall=%t started=%t",
				m.system.IsInCall(), m.voiceRecState.started)
			return
		}
		m.voiceRecState.started = true

		needAudio := true
		if m.voiceRecState.waiting {
			if _, armed := m.timers[timerStartVr]; !armed {
				return
			}
			m.log.Debug("voice recognition started successfully")
			m.voiceRecState.waiting = false
			m.native.AtResponseCode(m.peer, AtResponseOk, 0)
			m.cancelTimer(timerStartVr)
		} else {
			m.log.Debug("voice recognition started locally")
			needAudio = m.native.StartVoiceRecognition(m.peer)
		}

		if needAudio && m.cur.audioState() == AudioStateDisconnected {
			m.log.Debug("initiating audio connection for voice recognition")
			m.system.SetAudioParameters(map[string]string{"A2dpSuspended": "true"})
			m.native.ConnectAudio(m.peer)
		}
		if m.system.VoiceRecognitionWakeLockHeld() {
			m.system.ReleaseVoiceRecognitionWakeLock()
		}
		return
	}

	m.log.Debugf("voice recognition stopped, started=%t waiting=%t", m.voiceRecState.started, m.voiceRecState.waiting)
	if m.voiceRecState.started || m.voiceRecState.waiting {
		m.voiceRecState.started = false
		m.voiceRecState.waiting = false
		if m.native.StopVoiceRecognition(m.peer) && !m.system.IsInCall() && m.cur.audioState() != AudioStateDisconnected {
			m.native.DisconnectAudio(m.peer)
			m.system.SetAudioParameters(map[string]string{"A2dpSuspended": "false"})
		}
	}
}

// expectVoiceRecognition arms StartVrTimeout and holds the VR wake lock
// while waiting for this gateway's app, launched on the peer's request,
// to confirm VR actually started (KindVoiceRecognitionStart).
func (m *Machine) expectVoiceRecognition() {
	m.voiceRecState.waiting = true
	m.service.SetActiveDevice(m.peer)
	m.armTimer(timerStartVr, m.startVrTimeout)
	if !m.system.VoiceRecognitionWakeLockHeld() {
		m.system.AcquireVoiceRecognitionWakeLock(context.Background())
	}
}
