package registry

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-hfp/hfpagent/hfp"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestActiveDeviceClearedOnDisconnect(t *testing.T) {
	r := New(Options{Log: testLog()})
	r.SetActiveDevice("AA:BB:CC:DD:EE:FF")

	r.OnConnectionStateChanged("AA:BB:CC:DD:EE:FF", hfp.ConnectionStateConnected, hfp.ConnectionStateDisconnected)

	if got := r.ActiveDevice(); got != "" {
		t.Errorf("ActiveDevice() = %q, want empty after the active peer disconnects", got)
	}
}

func TestActiveDeviceUnaffectedByOtherPeerDisconnect(t *testing.T) {
	r := New(Options{Log: testLog()})
	r.SetActiveDevice("AA:BB:CC:DD:EE:FF")

	r.OnConnectionStateChanged("11:22:33:44:55:66", hfp.ConnectionStateConnected, hfp.ConnectionStateDisconnected)

	if got := r.ActiveDevice(); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("ActiveDevice() = %q, want unaffected by an unrelated peer's disconnect", got)
	}
}

func TestOkToAcceptConnectionDelegatesToBondedFn(t *testing.T) {
	r := New(Options{Log: testLog(), BondedFn: func(peer string) bool { return peer == "known" }})
	if !r.OkToAcceptConnection("known") {
		t.Error("expected known peer to be accepted")
	}
	if r.OkToAcceptConnection("unknown") {
		t.Error("expected unknown peer to be rejected")
	}
	if !r.IsBonded("known") || r.IsBonded("unknown") {
		t.Error("IsBonded should delegate to the same BondedFn")
	}
}

func TestDefaultBondedFnAcceptsEveryone(t *testing.T) {
	r := New(Options{Log: testLog()})
	if !r.OkToAcceptConnection("anything") {
		t.Error("expected the default BondedFn to accept everyone")
	}
}

func TestStartVoiceCommandActivityErrorsWithNoHandler(t *testing.T) {
	r := New(Options{Log: testLog()})
	if err := r.StartVoiceCommandActivity(); err == nil {
		t.Error("expected an error with no OnVoiceCommand handler configured")
	}
}

func TestStartVoiceCommandActivityDelegates(t *testing.T) {
	var gotPeer string
	r := New(Options{Log: testLog(), OnVoiceCommand: func(peer string) error {
		gotPeer = peer
		return nil
	}})
	r.SetActiveDevice("AA:BB:CC:DD:EE:FF")
	if err := r.StartVoiceCommandActivity(); err != nil {
		t.Fatalf("StartVoiceCommandActivity: %v", err)
	}
	if gotPeer != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("handler saw peer %q, want the active device", gotPeer)
	}
}

func TestRequestPhonebookAccessAutoRejectsWithNoHandler(t *testing.T) {
	r := New(Options{Log: testLog()})
	r.RequestPhonebookAccess("AA:BB:CC:DD:EE:FF")
	// No handler and no adopted Machine: ReplyPhonebookAccess should find
	// nothing to deliver to and return without panicking.
}

func TestAdoptAndMachineLookup(t *testing.T) {
	r := New(Options{Log: testLog()})
	m, err := hfp.NewMachine(hfp.Config{
		Peer:    "AA:BB:CC:DD:EE:FF",
		Native:  noopNative{},
		System:  noopSystem{},
		Service: r,
	})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	defer m.Destroy()

	r.Adopt("AA:BB:CC:DD:EE:FF", m)
	got, ok := r.Machine("AA:BB:CC:DD:EE:FF")
	if !ok || got != m {
		t.Fatalf("Machine() = %v, %v, want the adopted Machine", got, ok)
	}
	if peers := r.Peers(); len(peers) != 1 || peers[0] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Peers() = %v, want [AA:BB:CC:DD:EE:FF]", peers)
	}

	r.RemoveStateMachine("AA:BB:CC:DD:EE:FF")
	if _, ok := r.Machine("AA:BB:CC:DD:EE:FF"); ok {
		t.Error("expected the Machine to be gone after RemoveStateMachine")
	}
}

func TestCloseTearsDownEveryMachine(t *testing.T) {
	r := New(Options{Log: testLog()})
	for _, peer := range []string{"AA:BB:CC:DD:EE:01", "AA:BB:CC:DD:EE:02"} {
		m, err := hfp.NewMachine(hfp.Config{Peer: peer, Native: noopNative{}, System: noopSystem{}, Service: r})
		if err != nil {
			t.Fatalf("NewMachine: %v", err)
		}
		r.Adopt(peer, m)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(r.Peers()) != 0 {
		t.Errorf("expected no peers left after Close, got %v", r.Peers())
	}
}

// noopNative/noopSystem satisfy hfp.NativeInterface/hfp.SystemInterface with
// the bare minimum to let a Machine start and be torn down cleanly.
type noopNative struct{}

func (noopNative) ConnectHfp(string) bool              { return true }
func (noopNative) DisconnectHfp(string) bool           { return true }
func (noopNative) ConnectAudio(string) bool            { return true }
func (noopNative) DisconnectAudio(string) bool         { return true }
func (noopNative) SetVolume(string, int, int)          {}
func (noopNative) AtResponseCode(string, int, int)     {}
func (noopNative) AtResponseString(string, string)     {}
func (noopNative) CindResponse(string, int, int, int, int, int, int, int) {}
func (noopNative) ClccResponse(string, int, int, int, int, bool, string, int) {}
func (noopNative) CopsResponse(string, string)         {}
func (noopNative) PhoneStateChange(string, hfp.CallState) {}
func (noopNative) StartVoiceRecognition(string) bool   { return true }
func (noopNative) StopVoiceRecognition(string) bool    { return true }
func (noopNative) SendBsir(string, bool)                {}
func (noopNative) NotifyDeviceStatus(string, hfp.DeviceState) {}

type noopSystem struct{}

func (noopSystem) IsInCall() bool            { return false }
func (noopSystem) IsRinging() bool           { return false }
func (noopSystem) NumActiveCall() int        { return 0 }
func (noopSystem) NumHeldCall() int          { return 0 }
func (noopSystem) CallState() hfp.CallStateKind { return hfp.CallIdle }
func (noopSystem) CindSignal() int           { return 0 }
func (noopSystem) CindService() int          { return 0 }
func (noopSystem) CindRoam() int             { return 0 }
func (noopSystem) CindBatteryCharge() int    { return 5 }
func (noopSystem) NetworkOperator() string   { return "" }
func (noopSystem) SubscriberNumber() string  { return "" }
func (noopSystem) AnswerCall(string)         {}
func (noopSystem) HangupCall(string, bool)   {}
func (noopSystem) SendDtmf(int, string)      {}
func (noopSystem) ProcessChld(int) bool      { return true }
func (noopSystem) ListCurrentCalls() bool    { return false }
func (noopSystem) QueryPhoneState()          {}
func (noopSystem) ListenForPhoneState(bool)  {}
func (noopSystem) SetCallState(hfp.CallStateKind) {}
func (noopSystem) SetNumActiveCall(int)      {}
func (noopSystem) SetNumHeldCall(int)        {}
func (noopSystem) SetBluetoothScoOn(bool)    {}
func (noopSystem) SetStreamVolume(int, int, bool) {}
func (noopSystem) SetAudioParameters(map[string]string) {}
func (noopSystem) AcquireVoiceRecognitionWakeLock(context.Context) {}
func (noopSystem) ReleaseVoiceRecognitionWakeLock()                {}
func (noopSystem) VoiceRecognitionWakeLockHeld() bool               { return false }
