package hfp

// isScoAcceptable decides whether an incoming or requested SCO connection
// should be allowed through. A force-SCO override always wins; otherwise
// the peer must be the active device with audio routing allowed, and
// there must be an actual reason for audio — an ongoing call or voice
// recognition, or an in-band-ringing-enabled ring.
func (m *Machine) isScoAcceptable() bool {
	if m.service.ForceScoAudio() {
		return true
	}
	if m.service.ActiveDevice() != m.peer {
		m.log.Warnf("isScoAcceptable: rejected SCO since %s is not the active device", m.peer)
		return false
	}
	if !m.service.AudioRouteAllowed() {
		m.log.Warn("isScoAcceptable: rejected SCO since audio route is not allowed")
		return false
	}
	if m.system.IsInCall() || m.voiceRecState.started {
		return true
	}
	if m.system.IsRinging() && m.service.InbandRingingEnabled() {
		return true
	}
	m.log.Warnf("isScoAcceptable: rejected SCO, inCall=%t voiceRecognition=%t ringing=%t inbandRinging=%t",
		m.system.IsInCall(), m.voiceRecState.started, m.system.IsRinging(), m.service.InbandRingingEnabled())
	return false
}

// setAudioParameters pushes the current NREC/WBS/device-name parameter
// set to the system audio layer, called whenever one of those parameters
// changes while audio is connected and again on entering AudioOn.
func (m *Machine) setAudioParameters() {
	params := map[string]string{
		audioParamName: m.peer,
		audioParamNrec: m.atState.param(audioParamNrec, audioFeatureOff),
		audioParamWbs:  m.atState.param(audioParamWbs, audioFeatureOff),
	}
	m.system.SetAudioParameters(params)
}

// processNoiseReductionEvent handles the native NREC indication (the
// peer's physical noise-reduction/echo-cancellation toggle), pushing the
// updated parameter set immediately if audio is already up.
func (m *Machine) processNoiseReductionEvent(enable bool) {
	newVal := audioFeatureOff
	if enable {
		newVal = audioFeatureOn
	}
	m.atState.setParam(audioParamNrec, newVal)
	if m.cur.audioState() == AudioStateConnected {
		m.setAudioParameters()
	}
}

// processWbsEvent records the native wide-band-speech negotiation outcome
// as an audio parameter; it does not push it immediately since WBS is
// negotiated before audio connects and setAudioParameters always runs on
// AudioOn entry anyway.
func (m *Machine) processWbsEvent(wbsConfig int) {
	switch wbsConfig {
	case WbsYes:
		m.atState.setParam(audioParamWbs, audioFeatureOn)
	case WbsNo, WbsNone:
		m.atState.setParam(audioParamWbs, audioFeatureOff)
	default:
		m.log.Errorf("processWbsEvent: unknown wbsConfig %d", wbsConfig)
	}
}

// processVolumeEvent relays a native speaker/mic volume change to the
// system audio layer. The audio-focus check only warns; it is a known gap
// the data model carries forward rather than a bug this package fixes —
// the volume change is applied either way.
func (m *Machine) processVolumeEvent(volumeType, volume int) {
	if m.system.IsInCall() && m.cur.audioState() != AudioStateConnected {
		m.log.Warnf("processVolumeEvent, ignored because %s does not have audio focus", m.peer)
	}
	switch volumeType {
	case VolumeTypeSpeaker:
		m.scoVolume = volume
		showUI := m.cur == stateAudioOn
		m.system.SetStreamVolume(VolumeTypeSpeaker, volume, showUI)
	case VolumeTypeMic:
		// mic volume is neither stored nor forwarded
	default:
		m.log.Errorf("bad volume type: %d", volumeType)
	}
}
