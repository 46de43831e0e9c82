package hfp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T, native *fakeNative, system *fakeSystem, service *fakeService) *Machine {
	t.Helper()
	m, err := NewMachine(Config{
		Peer:    "AA:BB:CC:DD:EE:FF",
		Native:  native,
		System:  system,
		Service: service,
	})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	t.Cleanup(m.Destroy)
	return m
}

// waitFor polls cond every 5ms for up to 500ms, the way the teacher's own
// tests poll a Modem's async TTY pump rather than sleeping a fixed amount.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestNewMachineStartsDisconnected(t *testing.T) {
	m := newTestMachine(t, newFakeNative(), newFakeSystem(), newFakeService())
	if got := m.GetConnectionState(); got != ConnectionStateDisconnected {
		t.Errorf("GetConnectionState() = %v, want Disconnected", got)
	}
	if got := m.GetAudioState(); got != AudioStateDisconnected {
		t.Errorf("GetAudioState() = %v, want Disconnected", got)
	}
}

func TestConnectFlow(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)

	m.Send(Message{Kind: KindConnect, Peer: m.peer})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateConnecting })

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventConnectionStateChanged, Peer: m.peer, IntValue: ConnStateSlcConnected,
	}})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateConnected })
}

func TestConnectTimeoutReturnsToDisconnected(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m, err := NewMachine(Config{
		Peer: "AA:BB:CC:DD:EE:FF", Native: native, System: newFakeSystem(), Service: svc,
		ConnectTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	t.Cleanup(m.Destroy)

	m.Send(Message{Kind: KindConnect, Peer: m.peer})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateConnecting })
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateDisconnected })
}

// TestFullAudioLifecycle drives a Machine through the entire
// connect/audio-on/audio-off sequence in one go; failures here span several
// collaborators at once, so assertions use testify to keep the output
// readable the way the larger integration-style suites in the pack do.
func TestFullAudioLifecycle(t *testing.T) {
	native := newFakeNative()
	system := newFakeSystem()
	system.inCall = true
	svc := newFakeService()
	m := newTestMachine(t, native, system, svc)
	svc.SetActiveDevice(m.peer)

	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindConnectAudio, Peer: m.peer})
	waitFor(t, func() bool { return m.GetAudioState() == AudioStateConnecting })

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventAudioStateChanged, Peer: m.peer, IntValue: AudioStateEventConnected,
	}})
	waitFor(t, func() bool { return m.GetAudioState() == AudioStateConnected })

	m.Send(Message{Kind: KindDisconnectAudio, Peer: m.peer})
	waitFor(t, func() bool { return m.GetAudioState() == AudioStateConnected }) // AudioDisconnecting reports Connected too

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventAudioStateChanged, Peer: m.peer, IntValue: AudioStateEventDisconnected,
	}})
	waitFor(t, func() bool { return m.GetAudioState() == AudioStateDisconnected })

	require.Equal(t, ConnectionStateConnected, m.GetConnectionState(), "connection state must survive the audio lifecycle untouched")

	// The AudioOn->AudioDisconnecting edge must still have raised an audio
	// broadcast even though the reported integer never changed (§3.5).
	foundSameValueBroadcast := false
	for _, d := range svc.audioDeltas {
		if d.from == AudioStateConnected && d.to == AudioStateConnected {
			foundSameValueBroadcast = true
		}
	}
	require.True(t, foundSameValueBroadcast, "expected an AudioStateConnected->AudioStateConnected broadcast for the AudioOn->AudioDisconnecting edge")
}

func TestRejectSCOWhenNotActiveDevice(t *testing.T) {
	native := newFakeNative()
	system := newFakeSystem()
	system.inCall = true
	svc := newFakeService()
	m := newTestMachine(t, native, system, svc)
	svc.SetActiveDevice("some-other-peer")

	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindConnectAudio, Peer: m.peer})
	time.Sleep(20 * time.Millisecond)
	if got := m.GetAudioState(); got != AudioStateDisconnected {
		t.Errorf("GetAudioState() = %v, want Disconnected since peer is not the active device", got)
	}
}

func TestDisconnectFromConnected(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)
	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindDisconnect, Peer: m.peer})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateDisconnecting })

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventConnectionStateChanged, Peer: m.peer, IntValue: ConnStateDisconnected,
	}})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateDisconnected })
}

// TestDisconnectDuringConnectingIsDeferredAndReplayed covers the universal
// deferred-message invariant from spec.md §8: a Disconnect sent while the
// SLC handshake is still in flight cannot be handled by Connecting, so it
// must sit on the deferred list and fire automatically once the machine
// reaches Connected, with no second Disconnect needed.
func TestDisconnectDuringConnectingIsDeferredAndReplayed(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)

	m.Send(Message{Kind: KindConnect, Peer: m.peer})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateConnecting })

	m.Send(Message{Kind: KindDisconnect, Peer: m.peer})
	waitFor(t, func() bool {
		m.Lock()
		defer m.Unlock()
		return len(m.deferred) == 1 && m.deferred[0].Kind == KindDisconnect
	})

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventConnectionStateChanged, Peer: m.peer, IntValue: ConnStateSlcConnected,
	}})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateDisconnecting })

	native.mu.Lock()
	defer native.mu.Unlock()
	if len(native.disconnectHfpCalls) != 1 {
		t.Errorf("DisconnectHfp calls = %d, want exactly 1 from the replayed deferred Disconnect", len(native.disconnectHfpCalls))
	}
}

// TestRfcommLossWhileAudioOnReturnsToDisconnected covers the legal-edge gap
// found in review: an ordinary link loss while SCO is up must be able to
// reach Disconnected from AudioOn without panicking.
func TestRfcommLossWhileAudioOnReturnsToDisconnected(t *testing.T) {
	native := newFakeNative()
	system := newFakeSystem()
	system.inCall = true
	svc := newFakeService()
	m := newTestMachine(t, native, system, svc)
	svc.SetActiveDevice(m.peer)
	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindConnectAudio, Peer: m.peer})
	waitFor(t, func() bool { return m.GetAudioState() == AudioStateConnecting })
	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventAudioStateChanged, Peer: m.peer, IntValue: AudioStateEventConnected,
	}})
	waitFor(t, func() bool { return m.GetAudioState() == AudioStateConnected })

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventConnectionStateChanged, Peer: m.peer, IntValue: ConnStateDisconnected,
	}})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateDisconnected })
	if got := m.GetAudioState(); got != AudioStateDisconnected {
		t.Errorf("GetAudioState() = %v, want Disconnected once the link is gone", got)
	}

	// Audio teardown must be observed before connection teardown (§4.2/§5).
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.audioDeltas) == 0 || len(svc.connDeltas) == 0 {
		t.Fatalf("expected both an audio and a connection delta, got audio=%v conn=%v", svc.audioDeltas, svc.connDeltas)
	}
	lastAudio := svc.audioDeltas[len(svc.audioDeltas)-1]
	if lastAudio.to != AudioStateDisconnected {
		t.Errorf("last audio delta = %+v, want a transition to Disconnected", lastAudio)
	}
}

// TestDisconnectingRaceBackToConnected covers the other legal-edge gap: a
// late SLC_CONNECTED stack event arriving while tearing down must be able
// to resolve Disconnecting -> Connected without panicking.
func TestDisconnectingRaceBackToConnected(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)
	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindDisconnect, Peer: m.peer})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateDisconnecting })

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventConnectionStateChanged, Peer: m.peer, IntValue: ConnStateSlcConnected,
	}})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateConnected })
}

func TestIllegalTransitionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on illegal transition")
		}
	}()
	m := &Machine{cur: stateDisconnected}
	m.Lock()
	defer m.Unlock()
	m.transitionTo(stateAudioOn)
}

func connectAndReachConnected(t *testing.T, m *Machine) {
	t.Helper()
	m.Send(Message{Kind: KindConnect, Peer: m.peer})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateConnecting })
	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventConnectionStateChanged, Peer: m.peer, IntValue: ConnStateSlcConnected,
	}})
	waitFor(t, func() bool { return m.GetConnectionState() == ConnectionStateConnected })
}
