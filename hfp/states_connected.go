package hfp

import "time"

// connectedBaseHandle processes every message common to the four
// Connected* sub-states (Connected, AudioConnecting, AudioOn,
// AudioDisconnecting). Each sub-state's own handle tries its
// state-specific cases first and falls back to this one, the same
// delegation ConnectedBase.processMessage gave its four subclasses.
func connectedBaseHandle(m *Machine, msg Message) bool {
	switch msg.Kind {
	case KindConnect, KindDisconnect, KindConnectAudio, KindDisconnectAudio, KindConnectTimeout:
		panic("hfp: illegal message in connected-base handler: " + msg.Kind.String())
	case KindVoiceRecognitionStart:
		if msg.Peer != m.peer {
			m.log.Warnf("VOICE_RECOGNITION_START failed, %s is not current device", msg.Peer)
			return true
		}
		m.processLocalVrEvent(VrStateStarted)
		return true
	case KindVoiceRecognitionStop:
		if msg.Peer != m.peer {
			m.log.Warnf("VOICE_RECOGNITION_STOP failed, %s is not current device", msg.Peer)
			return true
		}
		m.processLocalVrEvent(VrStateStopped)
		return true
	case KindCallStateChanged:
		p, _ := msg.Payload.(callStatePayload)
		m.processCallState(p.state, p.isVirtual)
		return true
	case KindDeviceStateChanged:
		ds, _ := msg.Payload.(DeviceState)
		m.native.NotifyDeviceStatus(m.peer, ds)
		return true
	case KindSendClccResponse:
		r, _ := msg.Payload.(ClccResponse)
		m.processSendClccResponse(r)
		return true
	case KindClccRspTimeout:
		if msg.Peer != m.peer {
			m.log.Warnf("CLCC_RSP_TIMEOUT failed, %s is not current device", msg.Peer)
			return true
		}
		delete(m.timers, timerClccRsp)
		m.native.ClccResponse(m.peer, 0, 0, 0, 0, false, "", 0)
		return true
	case KindSendVendorResult:
		r, _ := msg.Payload.(VendorResultCode)
		m.processSendVendorSpecificResultCode(r)
		return true
	case KindSendBsir:
		m.native.SendBsir(m.peer, msg.Arg1 == 1)
		return true
	case KindDialingOutTimeout:
		if msg.Peer != m.peer {
			m.log.Warnf("DIALING_OUT_TIMEOUT failed, %s is not current device", msg.Peer)
			return true
		}
		if m.atState.dialingOut {
			m.atState.dialingOut = false
			m.native.AtResponseCode(m.peer, AtResponseError, 0)
		}
		return true
	case KindVirtualCallStart:
		if msg.Peer != m.peer {
			m.log.Warnf("VIRTUAL_CALL_START failed, %s is not current device", msg.Peer)
			return true
		}
		m.initiateScoUsingVirtualVoiceCall()
		return true
	case KindVirtualCallStop:
		if msg.Peer != m.peer {
			m.log.Warnf("VIRTUAL_CALL_STOP failed, %s is not current device", msg.Peer)
			return true
		}
		m.terminateScoUsingVirtualVoiceCall()
		return true
	case KindStartVrTimeout:
		if msg.Peer != m.peer {
			m.log.Warnf("START_VR_TIMEOUT failed, %s is not current device", msg.Peer)
			return true
		}
		delete(m.timers, timerStartVr)
		if m.voiceRecState.waiting {
			m.voiceRecState.waiting = false
			m.log.Error("timeout waiting for voice recognition to start")
			m.native.AtResponseCode(m.peer, AtResponseError, 0)
			if m.system.VoiceRecognitionWakeLockHeld() {
				m.system.ReleaseVoiceRecognitionWakeLock()
			}
		}
		return true
	case KindIntentConnectionAccessReply:
		r, _ := msg.Payload.(IntentAccessReply)
		m.handleAccessPermissionResult(r)
		return true
	case KindStackEvent:
		return connectedBaseStackEvent(m, msg)
	default:
		return false
	}
}

func connectedBaseStackEvent(m *Machine, msg Message) bool {
	ev, ok := msg.Payload.(StackEvent)
	if !ok || ev.Peer != m.peer {
		m.log.Errorf("stack event device mismatch: %+v", msg.Payload)
		return true
	}
	switch ev.Type {
	case EventConnectionStateChanged:
		connectedBaseProcessConnectionEvent(m, ev.IntValue)
	case EventAudioStateChanged:
		stateTable[m.cur].processAudioEvent(m, ev.IntValue)
	case EventVrStateChanged:
		m.processVrEvent(ev.IntValue)
	case EventAnswerCall:
		m.system.AnswerCall(m.peer)
	case EventHangupCall:
		m.system.HangupCall(m.peer, m.virtualCall)
	case EventVolumeChanged:
		m.processVolumeEvent(ev.IntValue, ev.IntValue2)
	case EventDialCall:
		m.processDialCall(ev.StringValue)
	case EventSendDtmf:
		m.system.SendDtmf(ev.IntValue, m.peer)
	case EventNoiseReduction:
		m.processNoiseReductionEvent(ev.IntValue == 1)
	case EventWbs:
		m.processWbsEvent(ev.IntValue)
	case EventAtChld:
		m.processAtChld(ev.IntValue)
	case EventSubscriberNumberRequest:
		m.processSubscriberNumberRequest()
	case EventAtCind:
		m.processAtCind()
	case EventAtCops:
		m.processAtCops()
	case EventAtClcc:
		m.processAtClcc()
	case EventUnknownAt:
		m.processUnknownAt(ev.StringValue)
	case EventKeyPressed:
		m.processKeyPressed()
	case EventAtBind:
		m.processAtBind(ev.StringValue)
	case EventAtBiev:
		m.processAtBiev(ev.IntValue, ev.IntValue2)
	default:
		m.log.Errorf("unknown stack event: %+v", ev)
	}
	return true
}

func connectedBaseProcessConnectionEvent(m *Machine, state int) {
	switch state {
	case ConnStateConnected:
		m.log.Error("processConnectionEvent: RFCOMM connected again, shouldn't happen")
	case ConnStateSlcConnected:
		m.log.Error("processConnectionEvent: SLC connected again, shouldn't happen")
	case ConnStateDisconnecting:
		m.log.Info("processConnectionEvent: Disconnecting")
		m.transitionTo(stateDisconnecting)
	case ConnStateDisconnected:
		m.log.Info("processConnectionEvent: Disconnected")
		m.transitionTo(stateDisconnected)
	default:
		m.log.Errorf("processConnectionEvent: bad state %d", state)
	}
}

func init() {
	registerState(stateDef{
		id:               stateConnected,
		enter:            connectedEnter,
		handle:           connectedHandle,
		processAudioEvent: connectedProcessAudioEvent,
	})
}

func connectedEnter(m *Machine, from stateID) {
	if m.connectingTimestamp.IsZero() {
		m.connectingTimestamp = time.Now()
	}
	m.system.ListenForPhoneState(true)
	if from == stateAudioOn || from == stateAudioDisconnecting {
		m.terminateScoUsingVirtualVoiceCall()
	}
	if from == stateConnecting {
		m.processNoiseReductionEvent(true)
		m.system.QueryPhoneState()
		m.removeDeferredKind(KindConnect)
	}
}

func connectedHandle(m *Machine, msg Message) bool {
	switch msg.Kind {
	case KindConnect:
		m.log.Warnf("CONNECT ignored, device=%s currentDevice=%s", msg.Peer, m.peer)
		return true
	case KindDisconnect:
		if msg.Peer != m.peer {
			m.log.Warnf("DISCONNECT, device %s not connected", msg.Peer)
			return true
		}
		if !m.native.DisconnectHfp(m.peer) {
			m.log.Errorf("DISCONNECT from %s failed", m.peer)
			m.service.OnConnectionStateChanged(m.peer, ConnectionStateConnected, ConnectionStateConnected)
			return true
		}
		m.transitionTo(stateDisconnecting)
		return true
	case KindConnectAudio:
		if !m.isScoAcceptable() {
			m.log.Warnf("CONNECT_AUDIO not allowed, device=%s", m.peer)
			return true
		}
		if !m.native.ConnectAudio(m.peer) {
			m.log.Errorf("failed to connect SCO audio for %s", m.peer)
			m.service.OnAudioStateChanged(m.peer, AudioStateDisconnected, AudioStateDisconnected)
			return true
		}
		m.transitionTo(stateAudioConnecting)
		return true
	case KindDisconnectAudio:
		m.log.Debugf("ignore DISCONNECT_AUDIO, device=%s", m.peer)
		return true
	default:
		return connectedBaseHandle(m, msg)
	}
}

func connectedProcessAudioEvent(m *Machine, state int) {
	switch state {
	case AudioStateEventConnected:
		if !m.isScoAcceptable() {
			m.log.Warn("processAudioEvent: reject incoming audio connection")
			if !m.native.DisconnectAudio(m.peer) {
				m.log.Error("processAudioEvent: failed to disconnect audio")
			}
			return
		}
		m.log.Info("processAudioEvent: audio connected")
		m.transitionTo(stateAudioOn)
	case AudioStateEventConnecting:
		if !m.isScoAcceptable() {
			m.log.Warn("processAudioEvent: reject incoming pending audio connection")
			if !m.native.DisconnectAudio(m.peer) {
				m.log.Error("processAudioEvent: failed to disconnect pending audio")
			}
			return
		}
		m.log.Info("processAudioEvent: audio connecting")
		m.transitionTo(stateAudioConnecting)
	case AudioStateEventDisconnected, AudioStateEventDisconnecting:
		// ignore
	default:
		m.log.Errorf("processAudioEvent: bad state %d", state)
	}
}

func (m *Machine) processSendVendorSpecificResultCode(r VendorResultCode) {
	s := r.Command + ": "
	if r.Arg != "" {
		s += r.Arg
	}
	m.native.AtResponseString(m.peer, s)
}
