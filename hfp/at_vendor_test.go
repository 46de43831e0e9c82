package hfp

import "testing"

func TestProcessUnknownAtRoutesCscsToPhonebook(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)
	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventUnknownAt, Peer: m.peer, StringValue: `AT+CSCS="UTF-8"`,
	}})
	waitFor(t, func() bool { return native.lastCode() == AtResponseOk })
}

func TestProcessUnknownAtVendorXapl(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)
	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventUnknownAt, Peer: m.peer, StringValue: `AT+XAPL=1234-5678,2`,
	}})
	waitFor(t, func() bool {
		native.mu.Lock()
		defer native.mu.Unlock()
		return len(native.strings) == 1
	})
	native.mu.Lock()
	reply := native.strings[0]
	native.mu.Unlock()
	if reply != "+XAPL=iPhone,2" {
		t.Errorf("XAPL reply = %q, want the battery-reporting capability string", reply)
	}
	waitFor(t, func() bool { return native.lastCode() == AtResponseOk })

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.broadcasts) != 1 || svc.broadcasts[0].Command != "+XAPL" {
		t.Errorf("expected a vendor broadcast for +XAPL, got %+v", svc.broadcasts)
	}
}

func TestProcessUnknownAtUnsupportedVendorCommandErrors(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)
	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventUnknownAt, Peer: m.peer, StringValue: `AT+NOTAREALCOMMAND=1`,
	}})
	waitFor(t, func() bool { return native.lastCode() == AtResponseError })
}

func TestProcessUnknownAtVendorQueryErrors(t *testing.T) {
	native := newFakeNative()
	svc := newFakeService()
	m := newTestMachine(t, native, newFakeSystem(), svc)
	connectAndReachConnected(t, m)

	m.Send(Message{Kind: KindStackEvent, Peer: m.peer, Payload: StackEvent{
		Type: EventUnknownAt, Peer: m.peer, StringValue: `AT+XAPL=?`,
	}})
	waitFor(t, func() bool { return native.lastCode() == AtResponseError })
}
