package hfp

import "strconv"

// processAtCind answers AT+CIND?, reporting a synthetic call/call-setup
// pair while a virtual call is in progress so carkits that expect a
// prompt, well-formed response during VoIP calls keep working the way they
// would for a real cellular call.
func (m *Machine) processAtCind() {
	var call, callSetup int
	if m.virtualCall {
		call, callSetup = 1, 0
	} else {
		call = m.system.NumActiveCall()
		callSetup = m.system.NumHeldCall()
	}
	m.native.CindResponse(m.peer,
		m.system.CindService(), call, callSetup, int(m.system.CallState()),
		m.system.CindSignal(), m.system.CindRoam(), m.system.CindBatteryCharge())
}

// processAtCops answers AT+COPS?, the current network operator name.
func (m *Machine) processAtCops() {
	m.native.CopsResponse(m.peer, m.system.NetworkOperator())
}

// processAtClcc answers AT+CLCC. While a virtual call is running it
// synthesises the two-line response real hardware never gets to send
// (a single active leg carrying the gateway's own subscriber number,
// terminated by the index-0 sentinel row); otherwise it asks telephony to
// stream the real call list back asynchronously and arms ClccRspTimeout
// in case telephony never answers.
func (m *Machine) processAtClcc() {
	if m.virtualCall {
		number := m.system.SubscriberNumber()
		m.native.ClccResponse(m.peer, 1, 0, 0, 0, false, number, tyaFromString(number))
		m.native.ClccResponse(m.peer, 0, 0, 0, 0, false, "", 0)
		return
	}
	if !m.system.ListCurrentCalls() {
		m.log.Errorf("processAtClcc: failed to list current calls for %s", m.peer)
		m.native.ClccResponse(m.peer, 0, 0, 0, 0, false, "", 0)
		return
	}
	m.armTimer(timerClccRsp, m.clccRspTimeout)
}

// processSendClccResponse relays one streamed AT+CLCC row from telephony,
// cancelling ClccRspTimeout once the index-0 terminator row arrives and
// dropping any row that shows up with no ClccRspTimeout outstanding (a
// stray response to a request this machine already gave up on).
func (m *Machine) processSendClccResponse(r ClccResponse) {
	if _, armed := m.timers[timerClccRsp]; !armed {
		return
	}
	if r.Index == 0 {
		m.cancelTimer(timerClccRsp)
	}
	m.native.ClccResponse(m.peer, r.Index, r.Direction, r.Status, r.Mode, r.MultiParty, r.Number, r.NumberType)
}

// processSubscriberNumberRequest answers AT+CNUM with the gateway's own
// number in the canonical "+CNUM: ,\"<number>\",<toa>,,4" form — the
// trailing 4 is the HFP "voice" service class, the only one a gateway
// advertises.
func (m *Machine) processSubscriberNumberRequest() {
	number := m.system.SubscriberNumber()
	if number == "" {
		m.log.Error("SubscriberNumber returned empty")
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
		return
	}
	m.native.AtResponseString(m.peer, "+CNUM: ,\""+number+"\","+strconv.Itoa(tyaFromString(number))+",,4")
	m.native.AtResponseCode(m.peer, AtResponseOk, 0)
}

// tyaFromString classifies a phone number's type-of-address the way
// PhoneNumberUtils.toaFromString does: 145 (international) when it starts
// with '+', 129 (national) otherwise.
func tyaFromString(number string) int {
	if len(number) > 0 && number[0] == '+' {
		return 145
	}
	return 129
}

