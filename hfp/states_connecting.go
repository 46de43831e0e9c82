package hfp

import "time"

// Connecting covers RFCOMM-connected-but-SLC-not-yet-established. Per HFP
// 1.7.1 §4.2 the peer may already be sending SLC-setup AT commands during
// this window: CHLD, CIND, WBS and BIND events go to the same handlers
// Connected uses; every other AT/stack event is logged as unexpected and
// then serviced by its Connected handler all the same.
func init() {
	registerState(stateDef{
		id:     stateConnecting,
		enter:  connectingEnter,
		exit:   connectingExit,
		handle: connectingHandle,
	})
}

func connectingEnter(m *Machine, from stateID) {
	m.connectingTimestamp = time.Now()
	m.armTimer(timerConnect, m.connectTimeout)
}

func connectingExit(m *Machine, to stateID) {
	m.cancelTimer(timerConnect)
}

func connectingHandle(m *Machine, msg Message) bool {
	switch msg.Kind {
	case KindConnect, KindConnectAudio, KindDisconnect:
		return false // defer until SLC resolves one way or the other
	case KindConnectTimeout:
		if msg.Peer != m.peer {
			m.log.Errorf("unknown device timeout %s", msg.Peer)
			return true
		}
		m.log.Warn("CONNECT_TIMEOUT")
		m.transitionTo(stateDisconnected)
		return true
	case KindCallStateChanged, KindDeviceStateChanged:
		m.log.Debugf("ignoring %s in Connecting", msg.Kind)
		return true
	case KindStackEvent:
		return connectingStackEvent(m, msg)
	default:
		return false
	}
}

func connectingStackEvent(m *Machine, msg Message) bool {
	ev, ok := msg.Payload.(StackEvent)
	if !ok || ev.Peer != m.peer {
		m.log.Errorf("stack event device mismatch: %+v", msg.Payload)
		return true
	}
	switch ev.Type {
	case EventConnectionStateChanged:
		switch ev.IntValue {
		case ConnStateDisconnected:
			m.log.Warn("Disconnected")
			m.transitionTo(stateDisconnected)
		case ConnStateConnected:
			m.log.Debug("RFCOMM connected")
		case ConnStateSlcConnected:
			m.log.Debug("SLC connected")
			m.transitionTo(stateConnected)
		case ConnStateConnecting:
			// ignored
		case ConnStateDisconnecting:
			m.log.Warn("ignore DISCONNECTING event")
		default:
			m.log.Errorf("incorrect state %d", ev.IntValue)
		}
	case EventAtChld:
		m.processAtChld(ev.IntValue)
	case EventAtCind:
		m.processAtCind()
	case EventWbs:
		m.processWbsEvent(ev.IntValue)
	case EventAtBind:
		m.processAtBind(ev.StringValue)
	case EventVrStateChanged:
		m.log.Warnf("unexpected VR event, state=%d", ev.IntValue)
		m.processVrEvent(ev.IntValue)
	case EventDialCall:
		m.log.Warn("unexpected dial event")
		m.processDialCall(ev.StringValue)
	case EventSubscriberNumberRequest:
		m.log.Warn("unexpected subscriber number event")
		m.processSubscriberNumberRequest()
	case EventAtCops:
		m.log.Warn("unexpected COPS event")
		m.processAtCops()
	case EventAtClcc:
		m.log.Warn("unexpected CLCC event")
		m.processAtClcc()
	case EventUnknownAt:
		m.log.Warnf("unexpected unknown AT event, cmd=%s", ev.StringValue)
		m.processUnknownAt(ev.StringValue)
	case EventKeyPressed:
		m.log.Warn("unexpected key-press event")
		m.processKeyPressed()
	case EventAtBiev:
		m.log.Warnf("unexpected BIEV event, ind=%d val=%d", ev.IntValue, ev.IntValue2)
		m.processAtBiev(ev.IntValue, ev.IntValue2)
	case EventVolumeChanged:
		m.log.Warn("unexpected volume event")
		m.processVolumeEvent(ev.IntValue, ev.IntValue2)
	case EventAnswerCall:
		m.log.Warn("unexpected answer event")
		m.system.AnswerCall(m.peer)
	case EventHangupCall:
		m.log.Warn("unexpected hangup event")
		m.system.HangupCall(m.peer, m.virtualCall)
	default:
		m.log.Errorf("unexpected event: %+v", ev)
	}
	return true
}
