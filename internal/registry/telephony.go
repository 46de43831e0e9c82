package registry

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/go-hfp/hfpagent/hfp"
)

// Telephony is a minimal in-memory hfp.SystemInterface: a host running
// hfpagentd is not itself a cellular modem, so there is no telephony
// framework underneath it the way there is on Android. It tracks the
// fields the CIND/CLCC/CNUM AT handlers need and lets a daemon's own
// control surface (CLI, D-Bus, whatever) drive calls into it; real calls
// never originate here on their own.
type Telephony struct {
	log *logrus.Entry

	mu               sync.Mutex
	callState        hfp.CallStateKind
	numActive        int
	numHeld          int
	ringing          bool
	signal           int
	service          int
	roam             int
	battery          int
	networkOperator  string
	subscriberNumber string
	listening        bool

	wakeLockMu   sync.Mutex
	wakeLockHeld bool
	wakeLockCtx  context.Context

	clccFn func() bool
	chldFn func(chld int) bool
}

// TelephonyOptions seeds a Telephony's static fields and optional CLCC/CHLD
// delegates; a daemon without real multi-party call handling can leave
// both nil and get the package defaults (no current calls, CHLD refused).
type TelephonyOptions struct {
	Log              *logrus.Entry
	NetworkOperator  string
	SubscriberNumber string
	Signal           int
	Service          int
	Battery          int
	ListCurrentCalls func() bool
	ProcessChld      func(chld int) bool
}

// NewTelephony builds a Telephony from opts.
func NewTelephony(opts TelephonyOptions) *Telephony {
	return &Telephony{
		log:              opts.Log,
		signal:           opts.Signal,
		service:          opts.Service,
		battery:          opts.Battery,
		networkOperator:  opts.NetworkOperator,
		subscriberNumber: opts.SubscriberNumber,
		clccFn:           opts.ListCurrentCalls,
		chldFn:           opts.ProcessChld,
	}
}

func (t *Telephony) IsInCall() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numActive > 0 || t.numHeld > 0 || t.callState == hfp.CallDialing || t.callState == hfp.CallAlerting
}

func (t *Telephony) IsRinging() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ringing
}

func (t *Telephony) NumActiveCall() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numActive
}

func (t *Telephony) NumHeldCall() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numHeld
}

func (t *Telephony) CallState() hfp.CallStateKind {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.callState
}

func (t *Telephony) CindSignal() int  { return t.atomicInt(&t.signal) }
func (t *Telephony) CindService() int { return t.atomicInt(&t.service) }
func (t *Telephony) CindRoam() int    { return t.atomicInt(&t.roam) }

func (t *Telephony) CindBatteryCharge() int { return t.atomicInt(&t.battery) }

func (t *Telephony) atomicInt(p *int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *p
}

func (t *Telephony) NetworkOperator() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.networkOperator
}

func (t *Telephony) SubscriberNumber() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subscriberNumber
}

func (t *Telephony) AnswerCall(peer string) {
	t.log.WithField("peer", peer).Info("AnswerCall")
	t.mu.Lock()
	t.ringing = false
	t.callState = hfp.CallActive
	t.numActive = 1
	t.mu.Unlock()
}

func (t *Telephony) HangupCall(peer string, isVirtualCall bool) {
	t.log.WithField("peer", peer).Infof("HangupCall virtual=%t", isVirtualCall)
	t.mu.Lock()
	t.ringing = false
	t.callState = hfp.CallIdle
	t.numActive = 0
	t.numHeld = 0
	t.mu.Unlock()
}

func (t *Telephony) SendDtmf(code int, peer string) {
	t.log.WithField("peer", peer).Debugf("SendDtmf %c", code)
}

func (t *Telephony) ProcessChld(chld int) bool {
	if t.chldFn != nil {
		return t.chldFn(chld)
	}
	return false
}

func (t *Telephony) ListCurrentCalls() bool {
	if t.clccFn != nil {
		return t.clccFn()
	}
	return false
}

func (t *Telephony) QueryPhoneState() {}

func (t *Telephony) ListenForPhoneState(listen bool) {
	t.mu.Lock()
	t.listening = listen
	t.mu.Unlock()
}

func (t *Telephony) SetCallState(s hfp.CallStateKind) {
	t.mu.Lock()
	t.callState = s
	t.ringing = s == hfp.CallIncoming
	t.mu.Unlock()
}

func (t *Telephony) SetNumActiveCall(n int) {
	t.mu.Lock()
	t.numActive = n
	t.mu.Unlock()
}

func (t *Telephony) SetNumHeldCall(n int) {
	t.mu.Lock()
	t.numHeld = n
	t.mu.Unlock()
}

func (t *Telephony) SetBluetoothScoOn(on bool) {
	t.log.Debugf("SetBluetoothScoOn(%t)", on)
}

func (t *Telephony) SetStreamVolume(volumeType int, value int, showUI bool) {
	t.log.Debugf("SetStreamVolume(type=%d, value=%d, showUI=%t)", volumeType, value, showUI)
}

func (t *Telephony) SetAudioParameters(params map[string]string) {
	t.log.Debugf("SetAudioParameters(%v)", params)
}

func (t *Telephony) AcquireVoiceRecognitionWakeLock(ctx context.Context) {
	t.wakeLockMu.Lock()
	defer t.wakeLockMu.Unlock()
	t.wakeLockHeld = true
	t.wakeLockCtx = ctx
}

func (t *Telephony) ReleaseVoiceRecognitionWakeLock() {
	t.wakeLockMu.Lock()
	defer t.wakeLockMu.Unlock()
	t.wakeLockHeld = false
	t.wakeLockCtx = nil
}

func (t *Telephony) VoiceRecognitionWakeLockHeld() bool {
	t.wakeLockMu.Lock()
	defer t.wakeLockMu.Unlock()
	return t.wakeLockHeld
}
