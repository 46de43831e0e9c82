package hfp

// phonebookAccess records whether a peer has been granted standing
// permission to read the local phonebook via AT+CPBR, mirroring
// BluetoothDevice's ACCESS_ALLOWED/ACCESS_REJECTED/unset tri-state.
type phonebookAccess int

const (
	phonebookAccessUnset phonebookAccess = iota
	phonebookAccessAllowed
	phonebookAccessRejected
)

// phonebookState holds the AT+CSCS/AT+CPBS/AT+CPBR sub-protocol state the
// original kept on a separate AtPhonebook collaborator. It lives directly
// on Machine here since nothing outside this package's AT handlers ever
// touches it.
type phonebookState struct {
	characterSet       string
	selectedStorage    string
	lastDialledNumber  string
	access             phonebookAccess
	checkingAccess     bool
	pendingCpbrRequest string
}

func (p *phonebookState) reset() {
	*p = phonebookState{characterSet: "UTF-8", selectedStorage: "ME"}
}

// processAtCscs handles AT+CSCS (select character set). Only the Set and
// Read forms carry meaning here; Test always reports UTF-8 as the only
// supported set.
func (m *Machine) processAtCscs(atString string, kind atCommandType) {
	switch kind {
	case atCommandSet:
		set := trimQuotes(atString[1:])
		m.phonebook.characterSet = set
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	case atCommandRead:
		m.native.AtResponseString(m.peer, "+CSCS: \""+m.phonebook.characterSet+"\"")
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	case atCommandTest:
		m.native.AtResponseString(m.peer, "+CSCS: (\"UTF-8\")")
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	default:
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
	}
}

// processAtCpbs handles AT+CPBS (select phonebook storage). Any storage
// name is accepted and echoed back by the Read form with 0 used of 0
// entries; no storage holds entries, and Test lists only "ME".
func (m *Machine) processAtCpbs(atString string, kind atCommandType) {
	switch kind {
	case atCommandSet:
		m.phonebook.selectedStorage = trimQuotes(atString[1:])
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	case atCommandRead:
		m.native.AtResponseString(m.peer, "+CPBS: \""+m.phonebook.selectedStorage+"\",0,0")
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	case atCommandTest:
		m.native.AtResponseString(m.peer, "+CPBS: (\"ME\")")
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	default:
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
	}
}

// processAtCpbr handles AT+CPBR=<index>[,<index2>], a phonebook read. This
// gateway does not expose any stored contacts, but the access-permission
// gate still runs so a peer's standing grant/denial is honoured the same
// way it would be for a gateway that does: an unset permission defers the
// command and asks the Service to prompt the user, a rejected permission
// answers ERROR immediately, and an allowed permission answers with an
// empty but well-formed OK.
func (m *Machine) processAtCpbr(atString string, kind atCommandType) {
	if kind == atCommandTest {
		m.native.AtResponseString(m.peer, "+CPBR: (1-0),40,16")
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
		return
	}
	if kind != atCommandRead && kind != atCommandSet {
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
		return
	}
	switch m.phonebook.access {
	case phonebookAccessRejected:
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
	case phonebookAccessAllowed:
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	default:
		m.phonebook.checkingAccess = true
		m.phonebook.pendingCpbrRequest = atString
		m.service.RequestPhonebookAccess(m.peer)
	}
}

// handleAccessPermissionResult resumes a CPBR read that was parked waiting
// for the user's connection-access decision. A stray reply that doesn't
// match an outstanding request is dropped rather than answered twice.
func (m *Machine) handleAccessPermissionResult(reply IntentAccessReply) {
	if !m.phonebook.checkingAccess {
		return
	}
	if reply.Allowed {
		if reply.AlwaysAllow {
			m.phonebook.access = phonebookAccessAllowed
		}
		m.native.AtResponseCode(m.peer, AtResponseOk, 0)
	} else {
		if reply.AlwaysAllow {
			m.phonebook.access = phonebookAccessRejected
		}
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
	}
	m.phonebook.checkingAccess = false
	m.phonebook.pendingCpbrRequest = ""
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
