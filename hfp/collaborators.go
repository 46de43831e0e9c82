package hfp

import "context"

// NativeInterface is the boundary to the native Bluetooth stack: it issues
// outbound connection/audio requests and AT responses, and is the sole
// writer of on-the-wire bytes towards the peer. Implementations live
// outside this package (see internal/nativeadapter for the BlueZ/D-Bus
// backed one); the state machine only ever sees this interface.
type NativeInterface interface {
	ConnectHfp(peer string) bool
	DisconnectHfp(peer string) bool
	ConnectAudio(peer string) bool
	DisconnectAudio(peer string) bool
	SetVolume(peer string, volumeType int, value int)
	AtResponseCode(peer string, code int, errorCode int)
	AtResponseString(peer string, s string)
	CindResponse(peer string, service, call, callSetup, callState, signal, roam, battery int)
	ClccResponse(peer string, index, direction, status, mode int, multiParty bool, number string, numberType int)
	CopsResponse(peer string, operator string)
	PhoneStateChange(peer string, state CallState)
	StartVoiceRecognition(peer string) (needsAudio bool)
	StopVoiceRecognition(peer string) bool
	SendBsir(peer string, on bool)
	NotifyDeviceStatus(peer string, state DeviceState)
}

// SystemInterface is the boundary to telephony, audio routing, and the
// wake-lock the VR sub-protocol coordinates with.
type SystemInterface interface {
	IsInCall() bool
	IsRinging() bool
	NumActiveCall() int
	NumHeldCall() int
	CallState() CallStateKind
	CindSignal() int
	CindService() int
	CindRoam() int
	CindBatteryCharge() int
	NetworkOperator() string
	SubscriberNumber() string

	AnswerCall(peer string)
	HangupCall(peer string, isVirtualCall bool)
	SendDtmf(code int, peer string)
	ProcessChld(chld int) bool
	// ListCurrentCalls asks telephony to stream AT+CLCC rows back via
	// KindSendClccResponse; it returns false if telephony cannot service
	// the request at all (no calls to enumerate, subsystem unavailable).
	ListCurrentCalls() bool
	QueryPhoneState()

	ListenForPhoneState(listen bool)
	SetCallState(CallStateKind)
	SetNumActiveCall(int)
	SetNumHeldCall(int)

	SetBluetoothScoOn(on bool)
	SetStreamVolume(volumeType int, value int, showUI bool)
	SetAudioParameters(params map[string]string)

	AcquireVoiceRecognitionWakeLock(ctx context.Context)
	ReleaseVoiceRecognitionWakeLock()
	VoiceRecognitionWakeLockHeld() bool
}

// Service is the boundary to the multi-device registry that owns this
// Machine's lifetime and the cross-device active-device selection.
type Service interface {
	OnConnectionStateChanged(peer string, from, to ConnectionState)
	OnAudioStateChanged(peer string, from, to AudioState)

	ActiveDevice() string
	SetActiveDevice(peer string)

	OkToAcceptConnection(peer string) bool
	AudioRouteAllowed() bool
	InbandRingingEnabled() bool
	ForceScoAudio() bool

	IsBonded(peer string) bool
	RemoveStateMachine(peer string)

	SendBroadcast(event BroadcastEvent)
	StartCallActivity(number string)
	StartVoiceCommandActivity() error
	// RequestPhonebookAccess asks the user, via whatever UI the Service
	// provides, whether peer may read the local phonebook via AT+CPBR.
	// The answer arrives back on the Machine's queue as a
	// KindIntentConnectionAccessReply message.
	RequestPhonebookAccess(peer string)
}

// BroadcastEvent is published to Service.SendBroadcast for every recognised
// vendor-specific AT command and every HF-indicator value change; it is
// also the payload type carried over internal/eventbus.
type BroadcastEvent struct {
	Kind VendorEventKind
	Peer string

	// Vendor-specific event fields.
	Command   string
	CompanyID int
	Args      []any

	// HF-indicator (BIND/BIEV) event fields.
	IndicatorID    int
	IndicatorValue int
}

// VendorEventKind discriminates the two kinds of BroadcastEvent this
// package emits.
type VendorEventKind int

const (
	BroadcastVendorSpecific VendorEventKind = iota
	BroadcastIndicatorValueChanged
)
