package hfp

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config bundles the collaborators and tunables a Machine needs at
// construction time. Native, System and Service are mandatory; the timeout
// fields default to the package's Default* constants when zero.
type Config struct {
	Peer   string
	Native NativeInterface
	System SystemInterface
	Service Service
	Log    *logrus.Entry

	ConnectTimeout    time.Duration
	DialingOutTimeout time.Duration
	StartVrTimeout    time.Duration
	ClccRspTimeout    time.Duration
}

// Machine is the per-peer HFP control-plane state machine. One Machine
// owns exactly one goroutine, started by NewMachine and stopped by
// Destroy. Handlers run on that goroutine with the embedded mutex held;
// Send, Destroy and the Get*/Dump accessors take the same mutex to reach
// the queue, timers and current state from any other goroutine.
type Machine struct {
	sync.Mutex
	cond *sync.Cond

	peer    string
	native  NativeInterface
	system  SystemInterface
	service Service
	log     *logrus.Entry

	connectTimeout    time.Duration
	dialingOutTimeout time.Duration
	startVrTimeout    time.Duration
	clccRspTimeout    time.Duration

	queue    []Message
	deferred []Message
	closed   bool
	doneCh   chan struct{}

	cur                  stateID
	connectingTimestamp  time.Time
	disconnectInitiatedBy string // "local" or "remote", for Dump/debug only

	timers map[timerKind]*time.Timer

	// AT-dialog and sub-protocol state, threaded through the handler
	// files in this package.
	atState       atDialogState
	virtualCall   bool
	voiceRecState vrState
	phonebook     phonebookState
	hfIndicators  map[int]int // indicator ID -> last value reported via AT+BIEV
	scoVolume     int
}

// checkLock panics if the Machine's mutex is not currently held by the
// caller, mirroring the teacher's own lock discipline for methods that
// require it.
func (m *Machine) checkLock() {
	if m.TryLock() {
		m.Unlock()
		panic("hfp: machine lock not held")
	}
}

// NewMachine constructs a Machine for peer and starts its goroutine. The
// Machine begins in Disconnected and stays there until Send delivers a
// KindConnect or a KindStackEvent reporting an incoming RFCOMM connection.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Native == nil || cfg.System == nil || cfg.Service == nil {
		return nil, ErrCollaboratorsRequired
	}
	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	m := &Machine{
		peer:              cfg.Peer,
		native:            cfg.Native,
		system:            cfg.System,
		service:           cfg.Service,
		log:               log.WithField("peer", cfg.Peer),
		connectTimeout:    orDefault(cfg.ConnectTimeout, DefaultConnectTimeout),
		dialingOutTimeout: orDefault(cfg.DialingOutTimeout, DefaultDialingOutTimeout),
		startVrTimeout:    orDefault(cfg.StartVrTimeout, DefaultStartVrTimeout),
		clccRspTimeout:    orDefault(cfg.ClccRspTimeout, DefaultClccRspTimeout),
		cur:               stateDisconnected,
		doneCh:            make(chan struct{}),
		timers:            make(map[timerKind]*time.Timer),
		hfIndicators:      make(map[int]int),
	}
	m.cond = sync.NewCond(&m.Mutex)
	stateTable[stateDisconnected].enter(m, stateDisconnected)
	go m.run()
	return m, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Send enqueues msg for processing on the Machine's goroutine. It takes
// the Machine's mutex, which dispatch holds for the whole of every
// handler, so it waits for a running handler to return. It is safe to
// call from any goroutine other than the Machine's own (a timer firing
// posts back via Send from the timer's goroutine); a call made from inside
// a handler, directly or through a collaborator method the handler
// invokes, deadlocks.
func (m *Machine) Send(msg Message) {
	m.Lock()
	defer m.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, msg)
	m.cond.Signal()
}

// Destroy stops the Machine's goroutine and releases its timers. It does
// not itself tear down the RFCOMM/SCO connections; callers that want a
// clean teardown should Send a KindDisconnect (and, if audio is up,
// KindDisconnectAudio) and wait for the resulting state transitions before
// calling Destroy.
func (m *Machine) Destroy() {
	m.Lock()
	if m.closed {
		m.Unlock()
		return
	}
	m.closed = true
	m.cancelAllTimers()
	m.cond.Signal()
	m.Unlock()
	<-m.doneCh
}

// GetDevice returns the peer address this Machine manages.
func (m *Machine) GetDevice() string {
	return m.peer
}

// GetConnectionState returns the current public connection state.
func (m *Machine) GetConnectionState() ConnectionState {
	m.Lock()
	defer m.Unlock()
	return m.cur.connectionState()
}

// GetAudioState returns the current public audio state.
func (m *Machine) GetAudioState() AudioState {
	m.Lock()
	defer m.Unlock()
	return m.cur.audioState()
}

// GetConnectingTimestampMs returns the unix-millisecond timestamp at which
// the Machine last entered Connecting, or zero if it hasn't yet.
func (m *Machine) GetConnectingTimestampMs() int64 {
	m.Lock()
	defer m.Unlock()
	if m.connectingTimestamp.IsZero() {
		return 0
	}
	return m.connectingTimestamp.UnixMilli()
}

// Dump renders a one-line snapshot of the Machine's state for diagnostics,
// in the spirit of the original implementation's dump() used by bugreports.
func (m *Machine) Dump() string {
	m.Lock()
	defer m.Unlock()
	return fmt.Sprintf(
		"peer=%s state=%s virtualCall=%t vr=%s queued=%d deferred=%d",
		m.peer, m.cur, m.virtualCall, m.voiceRecState, len(m.queue), len(m.deferred),
	)
}

// run is the Machine's single goroutine: it pulls one Message at a time
// off the queue, in order, and dispatches it to the current state's
// handler. A handler returning false means the message does not apply to
// the current state; it is held on a deferred list and redelivered, in
// original order, immediately after the next state transition — the same
// redelivery discipline HandlerState.deferMessage gives the Android
// implementation this was modelled on.
func (m *Machine) run() {
	defer close(m.doneCh)
	for {
		m.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed && len(m.queue) == 0 {
			m.Unlock()
			return
		}
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.Unlock()

		m.dispatch(msg)
	}
}

// dispatch runs under no lock on entry and acquires it for the duration of
// the handler call, matching the teacher's "handlers always run under the
// lock" rule; Send, Destroy and the accessors wait for it meanwhile.
func (m *Machine) dispatch(msg Message) {
	m.Lock()
	defer m.Unlock()

	def := stateTable[m.cur]
	handled := def.handle(m, msg)
	if !handled {
		m.deferred = append(m.deferred, msg)
	}
}

// transitionTo moves the Machine from its current state to to, enforcing
// the legal-edge table, running the outgoing state's exit hook and the
// incoming state's enter hook, broadcasting the resulting connection/audio
// state deltas, and finally redelivering every deferred message collected
// since the last transition. It must be called with the lock held, which
// is always true inside a state handler.
func (m *Machine) transitionTo(to stateID) {
	m.checkLock()
	from := m.cur
	checkLegalTransition(from, to)
	if from == to {
		return
	}
	if def := stateTable[from]; def.exit != nil {
		def.exit(m, to)
	}
	m.cur = to
	m.broadcastIfChanged(from, to)
	if def := stateTable[to]; def.enter != nil {
		def.enter(m, from)
	}
	m.drainDeferred()
}

// removeDeferredKind drops any message of the given kind waiting on the
// deferred list, used when entering Connected from Connecting so a stale
// auto-connect retry can't turn around and disconnect a device that just
// finished connecting. It must be called with the lock held.
func (m *Machine) removeDeferredKind(kind Kind) {
	kept := m.deferred[:0]
	for _, msg := range m.deferred {
		if msg.Kind != kind {
			kept = append(kept, msg)
		}
	}
	m.deferred = kept
}

// drainDeferred moves every message collected on the deferred list back to
// the front of the live queue, preserving their relative order, then
// clears the deferred list. It must be called with the lock held.
func (m *Machine) drainDeferred() {
	if len(m.deferred) == 0 {
		return
	}
	m.queue = append(m.deferred, m.queue...)
	m.deferred = nil
}
