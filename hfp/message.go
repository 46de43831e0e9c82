package hfp

// Kind identifies the type of a Message processed by a Machine's event
// queue. The partition mirrors the four message families the control
// plane must reconcile: user requests coming from the service API, system
// events coming from telephony/audio, a single stack-event envelope coming
// from the native HFP HAL, and the machine's own timers.
type Kind int

const (
	// User requests, issued by the service on behalf of the app or the user.
	KindConnect Kind = iota
	KindDisconnect
	KindConnectAudio
	KindDisconnectAudio
	KindVoiceRecognitionStart
	KindVoiceRecognitionStop
	KindVirtualCallStart
	KindVirtualCallStop

	// System events, issued by telephony/audio/intent plumbing.
	KindCallStateChanged
	KindDeviceStateChanged
	KindIntentScoVolumeChanged
	KindIntentConnectionAccessReply
	KindSendClccResponse
	KindSendVendorResult
	KindSendBsir

	// The single envelope carrying events from the native HFP HAL.
	KindStackEvent

	// Timers, always carrying the peer they were armed for.
	KindConnectTimeout
	KindDialingOutTimeout
	KindStartVrTimeout
	KindClccRspTimeout
)

// String renders a Kind the way the original implementation's
// getMessageName did, for log lines and assertion failure messages.
func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "CONNECT"
	case KindDisconnect:
		return "DISCONNECT"
	case KindConnectAudio:
		return "CONNECT_AUDIO"
	case KindDisconnectAudio:
		return "DISCONNECT_AUDIO"
	case KindVoiceRecognitionStart:
		return "VOICE_RECOGNITION_START"
	case KindVoiceRecognitionStop:
		return "VOICE_RECOGNITION_STOP"
	case KindVirtualCallStart:
		return "VIRTUAL_CALL_START"
	case KindVirtualCallStop:
		return "VIRTUAL_CALL_STOP"
	case KindCallStateChanged:
		return "CALL_STATE_CHANGED"
	case KindDeviceStateChanged:
		return "DEVICE_STATE_CHANGED"
	case KindIntentScoVolumeChanged:
		return "INTENT_SCO_VOLUME_CHANGED"
	case KindIntentConnectionAccessReply:
		return "INTENT_CONNECTION_ACCESS_REPLY"
	case KindSendClccResponse:
		return "SEND_CLCC_RESPONSE"
	case KindSendVendorResult:
		return "SEND_VENDOR_SPECIFIC_RESULT_CODE"
	case KindSendBsir:
		return "SEND_BSIR"
	case KindStackEvent:
		return "STACK_EVENT"
	case KindConnectTimeout:
		return "CONNECT_TIMEOUT"
	case KindDialingOutTimeout:
		return "DIALING_OUT_TIMEOUT"
	case KindStartVrTimeout:
		return "START_VR_TIMEOUT"
	case KindClccRspTimeout:
		return "CLCC_RSP_TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Message is the normalised unit of work delivered to a Machine's event
// queue. Peer is compared against the owning Machine's device handle by
// most handlers before acting: a mismatch means the message belongs to a
// stale or unrelated session and is dropped.
type Message struct {
	Kind    Kind
	Peer    string
	Payload any
	Arg1    int
}

// ClccResponse is the Payload carried by KindSendClccResponse, mirroring
// one line of a streamed AT+CLCC reply from telephony.
type ClccResponse struct {
	Index     int
	Direction int
	Status    int
	Mode      int
	MultiParty bool
	Number    string
	NumberType int
}

// VendorResultCode is the Payload carried by KindSendVendorResult.
type VendorResultCode struct {
	Command string
	Arg     string
}

// DeviceState is the Payload carried by KindDeviceStateChanged, forwarded
// verbatim to the native layer's NotifyDeviceStatus.
type DeviceState struct {
	NetworkAvailable bool
	Roaming          bool
	SignalStrength   int
	BatteryCharge    int
}

// IntentAccessReply is the Payload carried by KindIntentConnectionAccessReply.
type IntentAccessReply struct {
	Allowed      bool
	AlwaysAllow  bool
}
