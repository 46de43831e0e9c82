package hfp

import "strings"

// processDialCall services an EventDialCall stack event, the outgoing-call
// sub-protocol. Three input shapes
// are recognised: a plain number, memory dial ("><n>", which this gateway
// always resolves to redialling the last number), and an empty argument
// meaning "redial last number". A number ending in ';' has that suffix
// stripped per the voice-call dialling convention, and any in-progress
// virtual call is torn down first since a real outgoing call supersedes
// it.
func (m *Machine) processDialCall(number string) {
	if m.atState.dialingOut {
		m.log.Debug("processDialCall, already dialling")
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
		return
	}

	var dialNumber string
	switch {
	case number == "":
		dialNumber = m.phonebook.lastDialledNumber
		if dialNumber == "" {
			m.log.Debug("processDialCall, last dial number null")
			m.native.AtResponseCode(m.peer, AtResponseError, 0)
			return
		}
	case number[0] == '>':
		if strings.HasPrefix(number, ">9999") {
			m.native.AtResponseCode(m.peer, AtResponseError, 0)
			return
		}
		dialNumber = m.phonebook.lastDialledNumber
		if dialNumber == "" {
			m.log.Debug("processDialCall, last dial number null")
			m.native.AtResponseCode(m.peer, AtResponseError, 0)
			return
		}
	default:
		if number[len(number)-1] == ';' {
			number = number[:len(number)-1]
		}
		dialNumber = number
	}

	m.terminateScoUsingVirtualVoiceCall()
	m.service.SetActiveDevice(m.peer)
	m.phonebook.lastDialledNumber = dialNumber
	m.service.StartCallActivity(dialNumber)

	m.atState.dialingOut = true
	m.armTimer(timerDialingOut, m.dialingOutTimeout)
}

// processKeyPressed handles the single "headset button pressed" stack
// event: answer if ringing, promote+route audio to an already-active
// call (or hang that call up when its audio is already connected), or
// fall back to redialling the last number when idle.
func (m *Machine) processKeyPressed() {
	switch {
	case m.system.CallState() == CallIncoming:
		m.system.AnswerCall(m.peer)
	case m.system.NumActiveCall() > 0:
		if m.cur.audioState() == AudioStateDisconnected {
			m.service.SetActiveDevice(m.peer)
			m.native.ConnectAudio(m.peer)
		} else {
			m.system.HangupCall(m.peer, false)
		}
	default:
		if m.phonebook.lastDialledNumber == "" {
			m.log.Debug("processKeyPressed, last dial number null")
			return
		}
		m.service.SetActiveDevice(m.peer)
		m.service.StartCallActivity(m.phonebook.lastDialledNumber)
	}
}
