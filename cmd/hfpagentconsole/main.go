// Command hfpagentconsole is a pty-backed debug console for driving a
// single hfp.Machine by hand, in the spirit of cmd/vmodem: it opens a
// pseudo-terminal, prints its path, and lets anything connected to that
// tty (minicom, screen, cat) type raw AT command lines straight at one
// Machine with no BlueZ/D-Bus underneath it at all.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aymanbagabas/go-pty"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/go-hfp/hfpagent/hfp"
)

type options struct {
	Peer string `short:"p" long:"peer" description:"peer address to simulate" default:"AA:BB:CC:DD:EE:FF"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}

	p, err := pty.New()
	if err != nil {
		panic(err)
	}
	defer p.Close()
	fmt.Printf("console tty: %s\r\n", p.Name())

	cn := &consoleNative{w: p, peer: opts.Peer}
	sys := &consoleSystem{}
	svc := &consoleService{}

	log := logrus.NewEntry(logrus.StandardLogger())
	m, err := hfp.NewMachine(hfp.Config{
		Peer:    opts.Peer,
		Native:  cn,
		System:  sys,
		Service: svc,
		Log:     log,
	})
	if err != nil {
		panic(err)
	}
	defer m.Destroy()

	m.Send(hfp.Message{Kind: hfp.KindStackEvent, Peer: opts.Peer, Payload: hfp.StackEvent{
		Type: hfp.EventConnectionStateChanged, Peer: opts.Peer, IntValue: hfp.ConnStateSlcConnected,
	}})

	scanner := bufio.NewScanner(p)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ev, ok := consoleClassify(opts.Peer, line); ok {
			m.Send(hfp.Message{Kind: hfp.KindStackEvent, Peer: opts.Peer, Payload: ev})
		}
	}
}

// consoleClassify is a trimmed-down copy of nativeadapter's command
// classifier covering the handful of commands useful for manual testing;
// anything else falls through as EventUnknownAt like the real adapter.
func consoleClassify(peer, line string) (hfp.StackEvent, bool) {
	upper := strings.ToUpper(line)
	switch {
	case upper == "ATA":
		return hfp.StackEvent{Type: hfp.EventAnswerCall, Peer: peer}, true
	case upper == "AT+CIND?":
		return hfp.StackEvent{Type: hfp.EventAtCind, Peer: peer}, true
	case upper == "AT+CLCC":
		return hfp.StackEvent{Type: hfp.EventAtClcc, Peer: peer}, true
	case strings.HasPrefix(upper, "AT+CHLD="):
		n, _ := strconv.Atoi(strings.TrimPrefix(upper, "AT+CHLD="))
		return hfp.StackEvent{Type: hfp.EventAtChld, Peer: peer, IntValue: n}, true
	case strings.HasPrefix(line, "D"):
		return hfp.StackEvent{Type: hfp.EventDialCall, Peer: peer, StringValue: strings.TrimSuffix(line[1:], ";")}, true
	default:
		return hfp.StackEvent{Type: hfp.EventUnknownAt, Peer: peer, StringValue: line}, true
	}
}

// consoleNative prints every outbound AT response to the pty, so a human
// on the other end sees exactly what a real handsfree peer would.
type consoleNative struct {
	w    pty.Pty
	peer string
}

func (c *consoleNative) writeLine(s string) {
	fmt.Fprintf(c.w, "%s\r\n", s)
}

func (c *consoleNative) ConnectHfp(string) bool    { return true }
func (c *consoleNative) DisconnectHfp(string) bool { return true }
func (c *consoleNative) ConnectAudio(string) bool   { c.writeLine("(audio connected)"); return true }
func (c *consoleNative) DisconnectAudio(string) bool {
	c.writeLine("(audio disconnected)")
	return true
}
func (c *consoleNative) SetVolume(_ string, volumeType, value int) {
	c.writeLine(fmt.Sprintf("+VG%c: %d", "SM"[volumeType], value))
}
func (c *consoleNative) AtResponseCode(_ string, code, errorCode int) {
	if code == hfp.AtResponseOk {
		c.writeLine("OK")
		return
	}
	c.writeLine("ERROR")
}
func (c *consoleNative) AtResponseString(_ string, s string) { c.writeLine(s) }
func (c *consoleNative) CindResponse(_ string, service, call, callSetup, callState, signal, roam, battery int) {
	c.writeLine(fmt.Sprintf("+CIND: %d,%d,%d,%d,%d,%d,%d", service, call, callSetup, callState, signal, roam, battery))
	c.writeLine("OK")
}
func (c *consoleNative) ClccResponse(_ string, index, direction, status, mode int, multiParty bool, number string, numberType int) {
	if index == 0 {
		c.writeLine("OK")
		return
	}
	c.writeLine(fmt.Sprintf("+CLCC: %d,%d,%d,%d,%d", index, direction, status, mode, boolToInt(multiParty)))
}
func (c *consoleNative) CopsResponse(_ string, operator string) { c.writeLine("+COPS: 0,0,\"" + operator + "\"") }
func (c *consoleNative) PhoneStateChange(_ string, state hfp.CallState) {
	c.writeLine(fmt.Sprintf("(phone state: %+v)", state))
}
func (c *consoleNative) StartVoiceRecognition(string) bool { c.writeLine("+BVRA: 1"); return true }
func (c *consoleNative) StopVoiceRecognition(string) bool  { c.writeLine("+BVRA: 0"); return true }
func (c *consoleNative) SendBsir(_ string, on bool)         { c.writeLine(fmt.Sprintf("+BSIR: %d", boolToInt(on))) }
func (c *consoleNative) NotifyDeviceStatus(_ string, ds hfp.DeviceState) {
	c.writeLine(fmt.Sprintf("(device status: %+v)", ds))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// consoleSystem is a System collaborator with no real telephony backing at
// all; every query returns a fixed idle/no-signal snapshot.
type consoleSystem struct{}

func (consoleSystem) IsInCall() bool             { return false }
func (consoleSystem) IsRinging() bool            { return false }
func (consoleSystem) NumActiveCall() int         { return 0 }
func (consoleSystem) NumHeldCall() int           { return 0 }
func (consoleSystem) CallState() hfp.CallStateKind { return hfp.CallIdle }
func (consoleSystem) CindSignal() int            { return 4 }
func (consoleSystem) CindService() int           { return 1 }
func (consoleSystem) CindRoam() int               { return 0 }
func (consoleSystem) CindBatteryCharge() int      { return 5 }
func (consoleSystem) NetworkOperator() string     { return "Console Net" }
func (consoleSystem) SubscriberNumber() string    { return "" }
func (consoleSystem) AnswerCall(string)            {}
func (consoleSystem) HangupCall(string, bool)      {}
func (consoleSystem) SendDtmf(int, string)          {}
func (consoleSystem) ProcessChld(int) bool          { return false }
func (consoleSystem) ListCurrentCalls() bool        { return false }
func (consoleSystem) QueryPhoneState()              {}
func (consoleSystem) ListenForPhoneState(bool)       {}
func (consoleSystem) SetCallState(hfp.CallStateKind) {}
func (consoleSystem) SetNumActiveCall(int)           {}
func (consoleSystem) SetNumHeldCall(int)             {}
func (consoleSystem) SetBluetoothScoOn(bool)         {}
func (consoleSystem) SetStreamVolume(int, int, bool) {}
func (consoleSystem) SetAudioParameters(map[string]string) {}
func (consoleSystem) AcquireVoiceRecognitionWakeLock(ctx context.Context) {}
func (consoleSystem) ReleaseVoiceRecognitionWakeLock() {}
func (consoleSystem) VoiceRecognitionWakeLockHeld() bool { return false }

// consoleService is a Service collaborator for the single simulated peer:
// it reports no active device but forces SCO audio acceptance, and prints
// connection/audio deltas to stdout.
type consoleService struct{}

func (consoleService) OnConnectionStateChanged(peer string, from, to hfp.ConnectionState) {
	fmt.Printf("[%s] connection %s -> %s\n", peer, from, to)
}
func (consoleService) OnAudioStateChanged(peer string, from, to hfp.AudioState) {
	fmt.Printf("[%s] audio %s -> %s\n", peer, from, to)
}
func (consoleService) ActiveDevice() string           { return "" }
func (consoleService) SetActiveDevice(string)          {}
func (consoleService) OkToAcceptConnection(string) bool { return true }
func (consoleService) AudioRouteAllowed() bool          { return true }
func (consoleService) InbandRingingEnabled() bool       { return true }
func (consoleService) ForceScoAudio() bool              { return true }
func (consoleService) IsBonded(string) bool             { return true }
func (consoleService) RemoveStateMachine(string)        {}
func (consoleService) SendBroadcast(hfp.BroadcastEvent) {}
func (consoleService) StartCallActivity(string)         {}
func (consoleService) StartVoiceCommandActivity() error { return nil }
func (consoleService) RequestPhonebookAccess(string)     {}
