package hfp

// CallStateKind is the telephony call-setup state as reported by the
// SystemInterface and carried on KindCallStateChanged messages.
type CallStateKind int

const (
	CallIdle CallStateKind = iota
	CallIncoming
	CallDialing
	CallAlerting
	CallHeld
	CallActive
)

// CallState is a snapshot of telephony's view of the current call,
// injected either from the real telephony stack or synthetically by the
// virtual-call sub-protocol.
type CallState struct {
	NumActive  int
	NumHeld    int
	State      CallStateKind
	Number     string
	NumberType int
}

// callStatePayload wraps a CallState plus the isVirtual flag the original
// processCallState switches on; it is the Payload of KindCallStateChanged.
type callStatePayload struct {
	state     CallState
	isVirtual bool
}
