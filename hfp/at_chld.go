package hfp

// processAtChld handles AT+CHLD=<n>, the multiparty-call-handling command,
// by delegating entirely to telephony and translating its yes/no answer
// into an AT result code.
func (m *Machine) processAtChld(chld int) {
	if m.system.ProcessChld(chld) {
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	} else {
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
	}
}
