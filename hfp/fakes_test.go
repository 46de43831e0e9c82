package hfp

import (
	"context"
	"sync"
)

// fakeNative is a NativeInterface recording every outbound call, the way
// MockReadWriteCloser in the teacher's own test file records every write.
type fakeNative struct {
	mu sync.Mutex

	connectHfpResult    bool
	disconnectHfpResult bool
	connectAudioResult  bool
	disconnectAudioResult bool
	startVrResult       bool
	stopVrResult        bool

	connectHfpCalls    []string
	disconnectHfpCalls []string
	connectAudioCalls  []string
	disconnectAudioCalls []string
	codes              []int
	strings            []string
	cindCalls          int
	cindCall, cindCallSetup int
	clccCalls          []ClccResponse
	copsCalls          []string
	phoneStateChanges  []CallState
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		connectHfpResult:    true,
		disconnectHfpResult: true,
		connectAudioResult:  true,
		disconnectAudioResult: true,
	}
}

func (f *fakeNative) ConnectHfp(peer string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectHfpCalls = append(f.connectHfpCalls, peer)
	return f.connectHfpResult
}

func (f *fakeNative) DisconnectHfp(peer string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectHfpCalls = append(f.disconnectHfpCalls, peer)
	return f.disconnectHfpResult
}

func (f *fakeNative) ConnectAudio(peer string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectAudioCalls = append(f.connectAudioCalls, peer)
	return f.connectAudioResult
}

func (f *fakeNative) DisconnectAudio(peer string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectAudioCalls = append(f.disconnectAudioCalls, peer)
	return f.disconnectAudioResult
}

func (f *fakeNative) SetVolume(peer string, volumeType int, value int) {}

func (f *fakeNative) AtResponseCode(peer string, code int, errorCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
}

func (f *fakeNative) AtResponseString(peer string, s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings = append(f.strings, s)
}

func (f *fakeNative) CindResponse(peer string, service, call, callSetup, callState, signal, roam, battery int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cindCalls++
	f.cindCall, f.cindCallSetup = call, callSetup
}

func (f *fakeNative) ClccResponse(peer string, index, direction, status, mode int, multiParty bool, number string, numberType int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clccCalls = append(f.clccCalls, ClccResponse{index, direction, status, mode, multiParty, number, numberType})
}

func (f *fakeNative) CopsResponse(peer string, operator string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copsCalls = append(f.copsCalls, operator)
}

func (f *fakeNative) PhoneStateChange(peer string, state CallState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phoneStateChanges = append(f.phoneStateChanges, state)
}

func (f *fakeNative) StartVoiceRecognition(peer string) bool { return f.startVrResult }
func (f *fakeNative) StopVoiceRecognition(peer string) bool  { return f.stopVrResult }
func (f *fakeNative) SendBsir(peer string, on bool)          {}
func (f *fakeNative) NotifyDeviceStatus(peer string, state DeviceState) {}

func (f *fakeNative) lastCode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return -1
	}
	return f.codes[len(f.codes)-1]
}

func (f *fakeNative) codeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.codes)
}

// fakeSystem is a SystemInterface fake with plain fields, no telephony
// framework underneath it at all.
type fakeSystem struct {
	mu sync.Mutex

	inCall    bool
	ringing   bool
	numActive int
	numHeld   int
	callState CallStateKind
	signal, service, roam, battery int
	operator, subscriber string

	wakeHeld bool

	chldFn func(int) bool
	clccFn func() bool
}

func newFakeSystem() *fakeSystem { return &fakeSystem{} }

func (f *fakeSystem) IsInCall() bool  { f.mu.Lock(); defer f.mu.Unlock(); return f.inCall }
func (f *fakeSystem) IsRinging() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.ringing }
func (f *fakeSystem) NumActiveCall() int { f.mu.Lock(); defer f.mu.Unlock(); return f.numActive }
func (f *fakeSystem) NumHeldCall() int   { f.mu.Lock(); defer f.mu.Unlock(); return f.numHeld }
func (f *fakeSystem) CallState() CallStateKind { f.mu.Lock(); defer f.mu.Unlock(); return f.callState }
func (f *fakeSystem) CindSignal() int  { return f.signal }
func (f *fakeSystem) CindService() int { return f.service }
func (f *fakeSystem) CindRoam() int    { return f.roam }
func (f *fakeSystem) CindBatteryCharge() int { return f.battery }
func (f *fakeSystem) NetworkOperator() string  { return f.operator }
func (f *fakeSystem) SubscriberNumber() string { return f.subscriber }

func (f *fakeSystem) AnswerCall(peer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ringing = false
	f.callState = CallActive
	f.numActive = 1
}

func (f *fakeSystem) HangupCall(peer string, isVirtualCall bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callState = CallIdle
	f.numActive = 0
}

func (f *fakeSystem) SendDtmf(code int, peer string) {}

func (f *fakeSystem) ProcessChld(chld int) bool {
	if f.chldFn != nil {
		return f.chldFn(chld)
	}
	return true
}

func (f *fakeSystem) ListCurrentCalls() bool {
	if f.clccFn != nil {
		return f.clccFn()
	}
	return false
}

func (f *fakeSystem) QueryPhoneState()          {}
func (f *fakeSystem) ListenForPhoneState(bool) {}

func (f *fakeSystem) SetCallState(s CallStateKind) { f.mu.Lock(); f.callState = s; f.mu.Unlock() }
func (f *fakeSystem) SetNumActiveCall(n int)        { f.mu.Lock(); f.numActive = n; f.mu.Unlock() }
func (f *fakeSystem) SetNumHeldCall(n int)          { f.mu.Lock(); f.numHeld = n; f.mu.Unlock() }

func (f *fakeSystem) SetBluetoothScoOn(bool)                {}
func (f *fakeSystem) SetStreamVolume(int, int, bool)        {}
func (f *fakeSystem) SetAudioParameters(map[string]string) {}

func (f *fakeSystem) AcquireVoiceRecognitionWakeLock(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wakeHeld = true
}
func (f *fakeSystem) ReleaseVoiceRecognitionWakeLock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wakeHeld = false
}
func (f *fakeSystem) VoiceRecognitionWakeLockHeld() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wakeHeld
}

// fakeService is a Service fake that records every broadcast call and
// connection/audio delta so tests can assert on the exact sequence a real
// registry would see.
type fakeService struct {
	mu sync.Mutex

	active   string
	bonded   bool
	forceSco bool

	connDeltas []connDelta
	audioDeltas []audioDelta
	removed    []string
	broadcasts []BroadcastEvent
	dialed     []string
	accessRequests []string
}

type connDelta struct{ from, to ConnectionState }
type audioDelta struct{ from, to AudioState }

func newFakeService() *fakeService { return &fakeService{bonded: true} }

func (f *fakeService) OnConnectionStateChanged(peer string, from, to ConnectionState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connDeltas = append(f.connDeltas, connDelta{from, to})
}

func (f *fakeService) OnAudioStateChanged(peer string, from, to AudioState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioDeltas = append(f.audioDeltas, audioDelta{from, to})
}

func (f *fakeService) ActiveDevice() string   { f.mu.Lock(); defer f.mu.Unlock(); return f.active }
func (f *fakeService) SetActiveDevice(p string) { f.mu.Lock(); f.active = p; f.mu.Unlock() }

func (f *fakeService) OkToAcceptConnection(string) bool { return true }
func (f *fakeService) AudioRouteAllowed() bool          { return true }
func (f *fakeService) InbandRingingEnabled() bool       { return true }
func (f *fakeService) ForceScoAudio() bool              { f.mu.Lock(); defer f.mu.Unlock(); return f.forceSco }

func (f *fakeService) IsBonded(string) bool { f.mu.Lock(); defer f.mu.Unlock(); return f.bonded }
func (f *fakeService) RemoveStateMachine(peer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, peer)
}

func (f *fakeService) SendBroadcast(e BroadcastEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, e)
}

func (f *fakeService) StartCallActivity(number string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialed = append(f.dialed, number)
}

func (f *fakeService) StartVoiceCommandActivity() error { return nil }

func (f *fakeService) RequestPhonebookAccess(peer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessRequests = append(f.accessRequests, peer)
}

func (f *fakeService) audioDeltaCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.audioDeltas)
}

func (f *fakeService) lastAudioDelta() audioDelta {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDeltas[len(f.audioDeltas)-1]
}
