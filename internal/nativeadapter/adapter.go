// Package nativeadapter is the BlueZ/D-Bus backed implementation of
// hfp.NativeInterface: it registers the Hands-Free Audio Gateway profile
// with BlueZ, accepts the resulting RFCOMM file descriptor per peer, and
// turns the raw AT-command byte stream into hfp.StackEvent values and back
// into wire bytes. Actual RFCOMM byte framing beyond line splitting and SCO
// codec negotiation are out of scope (see DESIGN.md); this package's job
// ends at handing the native HFP HAL boundary a clean event/response API.
package nativeadapter

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	dbus "github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/go-hfp/hfpagent/hfp"
)

const (
	hfpAGUUID   = "0000111f-0000-1000-8000-00805f9b34fb"
	serviceName = "Hands-Free Audio Gateway"

	bluezService        = "org.bluez"
	profileIface         = "org.bluez.Profile1"
	profileManagerIface  = "org.bluez.ProfileManager1"
	deviceIface          = "org.bluez.Device1"
)

// Dispatcher delivers a stack event to the Machine that owns peer. The
// adapter doesn't know about machines or the registry; it only knows how
// to turn bytes into events and hand them off.
type Dispatcher func(peer string, ev hfp.StackEvent)

// Adapter implements hfp.NativeInterface for every peer it has accepted or
// connected an RFCOMM channel to. One Adapter instance serves every peer a
// daemon process manages; it is the sole owner of the D-Bus connection and
// the per-peer write side of the AT dialog.
type Adapter struct {
	log    *logrus.Entry
	bus    *dbus.Conn
	deploy Dispatcher

	mu    sync.Mutex
	peers map[string]*peerConn
	prof  *profile
}

type peerConn struct {
	peer string
	w    *bufio.Writer
	f    *os.File
}

// New connects to the system bus and registers the HFP AG profile as a
// server. deploy is called from a per-connection read goroutine every time
// a complete AT command line arrives; it must not block.
func New(log *logrus.Entry, deploy Dispatcher) (*Adapter, error) {
	bus, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("nativeadapter: connect system bus: %w", err)
	}
	a := &Adapter{
		log:    log,
		bus:    bus,
		deploy: deploy,
		peers:  make(map[string]*peerConn),
	}
	a.prof = &profile{a: a}
	path := dbus.ObjectPath("/github/go-hfp/hfpagent/profile/ag")
	if err := bus.Export(a.prof, path, profileIface); err != nil {
		return nil, fmt.Errorf("nativeadapter: export profile: %w", err)
	}
	opts := map[string]dbus.Variant{
		"Name": dbus.MakeVariant(serviceName),
		"Role": dbus.MakeVariant("server"),
	}
	pm := bus.Object(bluezService, dbus.ObjectPath("/org/bluez"))
	if call := pm.Call(profileManagerIface+".RegisterProfile", 0, path, hfpAGUUID, opts); call.Err != nil {
		return nil, fmt.Errorf("nativeadapter: RegisterProfile: %w", call.Err)
	}
	return a, nil
}

// Close unregisters the profile and closes every open peer connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	for peer, pc := range a.peers {
		pc.f.Close()
		delete(a.peers, peer)
	}
	a.mu.Unlock()
	return a.bus.Close()
}

// profile implements org.bluez.Profile1 for the AG server role.
type profile struct {
	a *Adapter
}

func (p *profile) Release() *dbus.Error { return nil }
func (p *profile) Cancel() *dbus.Error  { return nil }
func (p *profile) RequestDisconnection(dbus.ObjectPath) *dbus.Error { return nil }

// NewConnection is BlueZ's callback on an inbound RFCOMM connection. It
// adopts the fd as the peer's AT channel and starts the read pump.
func (p *profile) NewConnection(devPath dbus.ObjectPath, fd dbus.UnixFD, _ map[string]dbus.Variant) *dbus.Error {
	peer := addressFromPath(devPath)
	f := os.NewFile(uintptr(fd), "rfcomm-"+peer)
	pc := &peerConn{peer: peer, w: bufio.NewWriter(f), f: f}

	p.a.mu.Lock()
	p.a.peers[peer] = pc
	p.a.mu.Unlock()

	p.a.deploy(peer, hfp.StackEvent{Type: hfp.EventConnectionStateChanged, Peer: peer, IntValue: hfp.ConnStateConnected})
	go p.a.readLoop(peer, f)
	return nil
}

func addressFromPath(p dbus.ObjectPath) string {
	s := string(p)
	idx := strings.LastIndex(s, "/dev_")
	if idx < 0 {
		return s
	}
	return strings.ReplaceAll(s[idx+5:], "_", ":")
}

// readLoop splits the RFCOMM byte stream on AT's \r terminator and turns
// each resulting line into a StackEvent, mirroring the teacher's
// ttyReadTask but at line granularity: HFP AG peers send one complete AT
// command per line, unlike a DTE typing into a TTY one byte at a time.
func (a *Adapter) readLoop(peer string, f *os.File) {
	defer func() {
		a.mu.Lock()
		delete(a.peers, peer)
		a.mu.Unlock()
		f.Close()
		a.deploy(peer, hfp.StackEvent{Type: hfp.EventConnectionStateChanged, Peer: peer, IntValue: hfp.ConnStateDisconnected})
	}()

	scanner := bufio.NewScanner(f)
	scanner.Split(splitAtLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a.log.WithField("peer", peer).Debugf("AT <- %s", line)
		ev, ok := classify(peer, line)
		if !ok {
			continue
		}
		a.deploy(peer, ev)
	}
}

// splitAtLines is a bufio.SplitFunc that breaks on \r, tolerating a
// following \n, and skips runs of AT's leading \r\n framing.
func splitAtLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\r' {
			advance = i + 1
			if advance < len(data) && data[advance] == '\n' {
				advance++
			}
			return advance, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// classify turns one AT command line into a StackEvent the way the stock
// HFP AG HAL shim would: recognised command prefixes get a dedicated
// StackEventType, everything else falls through to EventUnknownAt for
// hfp's own vendor/phonebook dispatch in at_vendor.go to handle.
func classify(peer, line string) (hfp.StackEvent, bool) {
	upper := strings.ToUpper(line)
	switch {
	case upper == "ATA":
		return hfp.StackEvent{Type: hfp.EventAnswerCall, Peer: peer}, true
	case upper == "AT+CHUP":
		return hfp.StackEvent{Type: hfp.EventHangupCall, Peer: peer}, true
	case upper == "AT+CIND?" || upper == "AT+CIND=?":
		return hfp.StackEvent{Type: hfp.EventAtCind, Peer: peer}, true
	case upper == "AT+COPS?":
		return hfp.StackEvent{Type: hfp.EventAtCops, Peer: peer}, true
	case upper == "AT+CLCC":
		return hfp.StackEvent{Type: hfp.EventAtClcc, Peer: peer}, true
	case upper == "AT+CNUM":
		return hfp.StackEvent{Type: hfp.EventSubscriberNumberRequest, Peer: peer}, true
	case strings.HasPrefix(upper, "AT+CHLD="):
		n, _ := strconv.Atoi(strings.TrimPrefix(upper, "AT+CHLD="))
		return hfp.StackEvent{Type: hfp.EventAtChld, Peer: peer, IntValue: n}, true
	case strings.HasPrefix(upper, "AT+BIND="):
		return hfp.StackEvent{Type: hfp.EventAtBind, Peer: peer, StringValue: line[len("AT+BIND="):]}, true
	case strings.HasPrefix(upper, "AT+BIEV="):
		args := strings.SplitN(line[len("AT+BIEV="):], ",", 2)
		id, _ := strconv.Atoi(strings.TrimSpace(args[0]))
		val := 0
		if len(args) > 1 {
			val, _ = strconv.Atoi(strings.TrimSpace(args[1]))
		}
		return hfp.StackEvent{Type: hfp.EventAtBiev, Peer: peer, IntValue: id, IntValue2: val}, true
	case strings.HasPrefix(upper, "AT+VTS="):
		d := strings.Trim(line[len("AT+VTS="):], "\"")
		var code int
		if len(d) == 1 {
			code = int(d[0])
		}
		return hfp.StackEvent{Type: hfp.EventSendDtmf, Peer: peer, IntValue: code}, true
	case strings.HasPrefix(upper, "AT+NREC="):
		n, _ := strconv.Atoi(strings.TrimPrefix(upper, "AT+NREC="))
		return hfp.StackEvent{Type: hfp.EventNoiseReduction, Peer: peer, IntValue: n}, true
	case upper == "AT+BVRA=1":
		return hfp.StackEvent{Type: hfp.EventVrStateChanged, Peer: peer, IntValue: hfp.VrStateStarted}, true
	case upper == "AT+BVRA=0":
		return hfp.StackEvent{Type: hfp.EventVrStateChanged, Peer: peer, IntValue: hfp.VrStateStopped}, true
	case strings.HasPrefix(upper, "AT+VGS=") || strings.HasPrefix(upper, "AT+VGM="):
		vt := hfp.VolumeTypeSpeaker
		raw := line[len("AT+VGS="):]
		if strings.HasPrefix(upper, "AT+VGM=") {
			vt = hfp.VolumeTypeMic
			raw = line[len("AT+VGM="):]
		}
		v, _ := strconv.Atoi(raw)
		return hfp.StackEvent{Type: hfp.EventVolumeChanged, Peer: peer, IntValue: vt, IntValue2: v}, true
	case strings.HasPrefix(line, "D") || strings.HasPrefix(line, "d"):
		return hfp.StackEvent{Type: hfp.EventDialCall, Peer: peer, StringValue: strings.TrimSuffix(line[1:], ";")}, true
	default:
		return hfp.StackEvent{Type: hfp.EventUnknownAt, Peer: peer, StringValue: line}, true
	}
}

func (a *Adapter) conn(peer string) (*peerConn, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pc, ok := a.peers[peer]
	return pc, ok
}

func (a *Adapter) writeLine(peer, s string) bool {
	pc, ok := a.conn(peer)
	if !ok {
		a.log.WithField("peer", peer).Warn("writeLine: no RFCOMM channel open")
		return false
	}
	if _, err := pc.w.WriteString(s + "\r\n"); err != nil {
		a.log.WithField("peer", peer).Errorf("writeLine: %v", err)
		return false
	}
	return pc.w.Flush() == nil
}

// ConnectHfp initiates the Service Level Connection by asking BlueZ to
// connect the HFP AG profile on peer; the resulting RFCOMM fd arrives
// asynchronously via NewConnection.
func (a *Adapter) ConnectHfp(peer string) bool {
	dev := a.bus.Object(bluezService, devicePathFor(peer))
	call := dev.Call(deviceIface+".ConnectProfile", 0, hfpAGUUID)
	if call.Err != nil {
		a.log.WithField("peer", peer).Errorf("ConnectHfp: %v", call.Err)
		return false
	}
	return true
}

// DisconnectHfp asks BlueZ to tear the profile connection down.
func (a *Adapter) DisconnectHfp(peer string) bool {
	dev := a.bus.Object(bluezService, devicePathFor(peer))
	call := dev.Call(deviceIface+".DisconnectProfile", 0, hfpAGUUID)
	if call.Err != nil {
		a.log.WithField("peer", peer).Errorf("DisconnectHfp: %v", call.Err)
		return false
	}
	return true
}

// ConnectAudio and DisconnectAudio toggle the SCO link. SCO codec
// negotiation and the raw SCO socket are out of scope (see DESIGN.md); a
// real deployment would exercise BlueZ's Headset/Gateway audio codec
// switch here. This adapter only logs and reports success: it opens or
// closes no SCO link, and its stack event reader never emits
// EventAudioStateChanged.
func (a *Adapter) ConnectAudio(peer string) bool {
	a.log.WithField("peer", peer).Debug("ConnectAudio: requesting SCO link")
	return true
}

func (a *Adapter) DisconnectAudio(peer string) bool {
	a.log.WithField("peer", peer).Debug("DisconnectAudio: tearing down SCO link")
	return true
}

func (a *Adapter) SetVolume(peer string, volumeType int, value int) {
	if volumeType == hfp.VolumeTypeMic {
		a.writeLine(peer, fmt.Sprintf("+VGM: %d", value))
		return
	}
	a.writeLine(peer, fmt.Sprintf("+VGS: %d", value))
}

func (a *Adapter) AtResponseCode(peer string, code int, errorCode int) {
	if code == hfp.AtResponseOk {
		a.writeLine(peer, "OK")
		return
	}
	if errorCode > 0 {
		a.writeLine(peer, fmt.Sprintf("+CME ERROR: %d", errorCode))
		return
	}
	a.writeLine(peer, "ERROR")
}

func (a *Adapter) AtResponseString(peer string, s string) {
	a.writeLine(peer, s)
}

func (a *Adapter) CindResponse(peer string, service, call, callSetup, callState, signal, roam, battery int) {
	a.writeLine(peer, fmt.Sprintf("+CIND: %d,%d,%d,%d,%d,%d,%d", service, call, callSetup, callState, signal, roam, battery))
	a.writeLine(peer, "OK")
}

func (a *Adapter) ClccResponse(peer string, index, direction, status, mode int, multiParty bool, number string, numberType int) {
	if index == 0 {
		a.writeLine(peer, "OK")
		return
	}
	mp := 0
	if multiParty {
		mp = 1
	}
	if number == "" {
		a.writeLine(peer, fmt.Sprintf("+CLCC: %d,%d,%d,%d,%d", index, direction, status, mode, mp))
		return
	}
	a.writeLine(peer, fmt.Sprintf("+CLCC: %d,%d,%d,%d,%d,%q,%d", index, direction, status, mode, mp, number, numberType))
}

func (a *Adapter) CopsResponse(peer string, operator string) {
	a.writeLine(peer, fmt.Sprintf("+COPS: 0,0,%q", operator))
	a.writeLine(peer, "OK")
}

func (a *Adapter) PhoneStateChange(peer string, state hfp.CallState) {
	a.log.WithField("peer", peer).Debugf("PhoneStateChange: %+v", state)
	switch state.State {
	case hfp.CallIncoming:
		a.writeLine(peer, "RING")
		a.writeLine(peer, fmt.Sprintf("+CLIP: %q,%d", state.Number, state.NumberType))
	}
}

func (a *Adapter) StartVoiceRecognition(peer string) bool {
	a.writeLine(peer, "+BVRA: 1")
	return true
}

func (a *Adapter) StopVoiceRecognition(peer string) bool {
	a.writeLine(peer, "+BVRA: 0")
	return true
}

func (a *Adapter) SendBsir(peer string, on bool) {
	v := 0
	if on {
		v = 1
	}
	a.writeLine(peer, fmt.Sprintf("+BSIR: %d", v))
}

func (a *Adapter) NotifyDeviceStatus(peer string, state hfp.DeviceState) {
	a.log.WithField("peer", peer).Debugf("NotifyDeviceStatus: %+v", state)
}

func devicePathFor(peer string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/hci0/dev_" + strings.ReplaceAll(peer, ":", "_"))
}
