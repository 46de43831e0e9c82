package hfp

import "fmt"

// ConnectionState is the public signalling-connection state, returned by
// Machine.GetConnectionState and carried on Service.OnConnectionStateChanged.
type ConnectionState int

const (
	ConnectionStateDisconnected ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateDisconnecting
)

func (c ConnectionState) String() string {
	switch c {
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// AudioState is the public SCO-audio state, returned by
// Machine.GetAudioState and carried on Service.OnAudioStateChanged.
type AudioState int

const (
	AudioStateDisconnected AudioState = iota
	AudioStateConnecting
	AudioStateConnected
	AudioStateDisconnecting
)

func (a AudioState) String() string {
	switch a {
	case AudioStateDisconnected:
		return "disconnected"
	case AudioStateConnecting:
		return "connecting"
	case AudioStateConnected:
		return "connected"
	case AudioStateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// stateID identifies one of the seven concrete states a Machine can be in.
// There is no class hierarchy behind these: every state is a plain value
// plus a row in stateTable, matched against incoming messages by handle.
type stateID int

const (
	stateDisconnected stateID = iota
	stateConnecting
	stateDisconnecting
	stateConnected
	stateAudioConnecting
	stateAudioOn
	stateAudioDisconnecting
)

func (s stateID) String() string {
	switch s {
	case stateDisconnected:
		return "Disconnected"
	case stateConnecting:
		return "Connecting"
	case stateDisconnecting:
		return "Disconnecting"
	case stateConnected:
		return "Connected"
	case stateAudioConnecting:
		return "AudioConnecting"
	case stateAudioOn:
		return "AudioOn"
	case stateAudioDisconnecting:
		return "AudioDisconnecting"
	default:
		return "Unknown"
	}
}

// connectionState maps a stateID to the ConnectionState a client observes.
// All four Connected* sub-states collapse to ConnectionStateConnected; only
// Disconnected/Connecting/Disconnecting keep their own value.
func (s stateID) connectionState() ConnectionState {
	switch s {
	case stateDisconnected:
		return ConnectionStateDisconnected
	case stateConnecting:
		return ConnectionStateConnecting
	case stateDisconnecting:
		return ConnectionStateDisconnecting
	default:
		return ConnectionStateConnected
	}
}

// audioState maps a stateID to the AudioState a client observes.
// Disconnected, Connecting and Disconnecting (signalling states) and
// Connected (signalling, no audio) all report AudioStateDisconnected.
//
// AudioDisconnecting deliberately reports AudioStateConnected, not
// AudioStateDisconnecting: the data model this mirrors never defined a
// public "audio disconnecting" value, so its AudioDisconnecting state kept
// reporting the prior connected value throughout the teardown handshake.
// AudioStateDisconnecting exists in this package's public enum, but no
// state reports it and GetAudioState never returns it.
func (s stateID) audioState() AudioState {
	switch s {
	case stateAudioConnecting:
		return AudioStateConnecting
	case stateAudioOn, stateAudioDisconnecting:
		return AudioStateConnected
	default:
		return AudioStateDisconnected
	}
}

// legalPredecessors lists, for each stateID, the set of states a transition
// into it may legally come from. It is the Go-side rendering of
// enforceValidConnectionStateTransition: entering Disconnected from the
// zero value (machine start-up, prevState == stateDisconnected itself) is
// always allowed and is not checked here.
var legalPredecessors = map[stateID]map[stateID]bool{
	stateDisconnected: {
		stateConnecting:         true,
		stateDisconnecting:      true,
		stateConnected:          true, // abnormal RFCOMM drop while fully connected
		stateAudioConnecting:    true, // abnormal RFCOMM drop while SCO was coming up
		stateAudioOn:            true, // abnormal RFCOMM drop while SCO was up
		stateAudioDisconnecting: true, // abnormal RFCOMM drop while SCO was tearing down
	},
	stateConnecting: {
		stateDisconnected: true,
	},
	stateDisconnecting: {
		stateConnected:          true,
		stateAudioConnecting:    true,
		stateAudioOn:            true,
		stateAudioDisconnecting: true,
	},
	stateConnected: {
		stateConnecting:         true,
		stateAudioConnecting:    true,
		stateAudioOn:            true,
		stateAudioDisconnecting: true,
		stateDisconnecting:      true, // the rare SLC-race: Disconnecting resolves back to Connected
		stateDisconnected:       true,
	},
	stateAudioConnecting: {
		stateConnected: true,
	},
	stateAudioOn: {
		stateConnected:          true,
		stateAudioConnecting:    true,
		stateAudioDisconnecting: true, // audio disconnection failed
	},
	stateAudioDisconnecting: {
		stateAudioOn:         true,
		stateAudioConnecting: true,
	},
}

// checkLegalTransition panics with ErrInvalidStateTransition when from->to
// is not a legal edge, mirroring the original's fatal enforcement rather
// than silently tolerating a model of the world that has gone wrong.
func checkLegalTransition(from, to stateID) {
	if from == to {
		return
	}
	if legalPredecessors[to][from] {
		return
	}
	panic(fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, from, to))
}

// stateDef is one row of stateTable: a state's lifecycle hooks plus its
// message handler. enter and exit both receive the other side of the
// transition (enter gets the state being left, exit gets the state being
// entered) so they can special-case specific edges the way the teacher's
// setStatus special-cases specific prevStatus values. handle returns
// whether it consumed msg; a false return defers msg for redelivery after
// the next transition.
type stateDef struct {
	id     stateID
	enter  func(m *Machine, from stateID)
	exit   func(m *Machine, to stateID)
	handle func(m *Machine, msg Message) bool

	// processAudioEvent is only populated for the four Connected* states;
	// it is how each of them reacts differently to the native SCO state
	// machine, the one piece ConnectedBase declared abstract rather than
	// handling itself.
	processAudioEvent func(m *Machine, state int)
}

// stateTable is populated by each states_*.go file's init function and
// consulted by Machine.dispatch and Machine.transitionTo. There is no
// per-state type and no virtual dispatch: every state is this one struct
// value, keyed by stateID.
var stateTable = map[stateID]stateDef{}

func registerState(def stateDef) {
	stateTable[def.id] = def
}
