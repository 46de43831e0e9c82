// Package registry is the minimal multi-device hfp.Service implementation
// hfpagentd uses to own one hfp.Machine per bonded peer: active-device
// arbitration, bonded-peer bookkeeping, and the broadcast/activity hooks
// every Machine calls out to. It holds machines in memory only.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/go-hfp/hfpagent/hfp"
	"github.com/go-hfp/hfpagent/internal/eventbus"
)

// entry pairs a Machine with the session identifier it was created under,
// for log correlation and for the debug console to address it by.
type entry struct {
	session uuid.UUID
	machine *hfp.Machine
}

// Registry owns every peer's Machine and answers the Service collaborator
// calls on their behalf. AudioRouteAllowed/InbandRingingEnabled/
// ForceScoAudio are fixed at construction from config.Settings; a real
// deployment could make these per-peer, but nothing in this domain needs
// that yet.
type Registry struct {
	log *logrus.Entry
	bus eventbus.Handler

	bondedFn func(peer string) bool

	audioRouteAllowed    bool
	inbandRingingEnabled bool
	forceScoAudio        bool

	mu       sync.RWMutex
	machines map[string]*entry

	active atomic.String

	onAccessRequest func(peer string)
	onCallActivity  func(peer, number string)
	onVoiceCommand  func(peer string) error
}

// Options configures a Registry at construction.
type Options struct {
	Log      *logrus.Entry
	Bus      eventbus.Handler
	BondedFn func(peer string) bool

	AudioRouteAllowed    bool
	InbandRingingEnabled bool
	ForceScoAudio        bool

	// OnAccessRequest is invoked when a peer asks to read the phonebook;
	// the daemon is expected to eventually call Registry.ReplyPhonebookAccess.
	OnAccessRequest func(peer string)
	// OnCallActivity is invoked for StartCallActivity (dial-out) requests.
	OnCallActivity func(peer, number string)
	// OnVoiceCommand is invoked for StartVoiceCommandActivity requests.
	OnVoiceCommand func(peer string) error
}

// New builds an empty Registry.
func New(opts Options) *Registry {
	if opts.Bus == nil {
		opts.Bus = eventbus.NilHandler()
	}
	if opts.BondedFn == nil {
		opts.BondedFn = func(string) bool { return true }
	}
	return &Registry{
		log:                   opts.Log,
		bus:                   opts.Bus,
		bondedFn:              opts.BondedFn,
		audioRouteAllowed:     opts.AudioRouteAllowed,
		inbandRingingEnabled:  opts.InbandRingingEnabled,
		forceScoAudio:         opts.ForceScoAudio,
		machines:              make(map[string]*entry),
		onAccessRequest:       opts.OnAccessRequest,
		onCallActivity:        opts.OnCallActivity,
		onVoiceCommand:        opts.OnVoiceCommand,
	}
}

// Adopt registers a Machine already created for peer, so the registry can
// look it up by address for RemoveStateMachine and debug-console access.
// Callers construct the Machine themselves (it needs Native and System
// collaborators, which the registry does not hold, alongside the registry
// as its Service).
func (r *Registry) Adopt(peer string, m *hfp.Machine) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.machines[peer] = &entry{session: id, machine: m}
	r.mu.Unlock()
	return id
}

// Machine returns the Machine for peer, if one is registered.
func (r *Registry) Machine(peer string) (*hfp.Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.machines[peer]
	if !ok {
		return nil, false
	}
	return e.machine, true
}

// Peers returns every peer address currently registered.
func (r *Registry) Peers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.machines))
	for peer := range r.machines {
		out = append(out, peer)
	}
	return out
}

// Close tears down every registered Machine concurrently, one errgroup
// goroutine per Machine, and waits for all of them to finish; ctx sets no
// deadline on that wait.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	machines := make([]*hfp.Machine, 0, len(r.machines))
	for _, e := range r.machines {
		machines = append(machines, e.machine)
	}
	r.machines = make(map[string]*entry)
	r.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, m := range machines {
		m := m
		g.Go(func() error {
			m.Destroy()
			return nil
		})
	}
	return g.Wait()
}

// ReplyPhonebookAccess resumes a peer's parked AT+CPBR request after the
// daemon's UI has answered RequestPhonebookAccess.
func (r *Registry) ReplyPhonebookAccess(peer string, allowed, alwaysAllow bool) {
	m, ok := r.Machine(peer)
	if !ok {
		return
	}
	m.Send(hfp.Message{
		Kind: hfp.KindIntentConnectionAccessReply,
		Peer: peer,
		Payload: hfp.IntentAccessReply{Allowed: allowed, AlwaysAllow: alwaysAllow},
	})
}

// --- hfp.Service ---

func (r *Registry) OnConnectionStateChanged(peer string, from, to hfp.ConnectionState) {
	r.log.WithField("peer", peer).Infof("connection state %s -> %s", from, to)
	r.bus.Publish(eventbus.Topic(peer), hfp.BroadcastEvent{Peer: peer})
	if to == hfp.ConnectionStateDisconnected && r.active.Load() == peer {
		r.active.Store("")
	}
}

func (r *Registry) OnAudioStateChanged(peer string, from, to hfp.AudioState) {
	r.log.WithField("peer", peer).Infof("audio state %s -> %s", from, to)
	r.bus.Publish(eventbus.Topic(peer), hfp.BroadcastEvent{Peer: peer})
}

func (r *Registry) ActiveDevice() string { return r.active.Load() }

func (r *Registry) SetActiveDevice(peer string) { r.active.Store(peer) }

func (r *Registry) OkToAcceptConnection(peer string) bool { return r.bondedFn(peer) }

func (r *Registry) AudioRouteAllowed() bool    { return r.audioRouteAllowed }
func (r *Registry) InbandRingingEnabled() bool { return r.inbandRingingEnabled }
func (r *Registry) ForceScoAudio() bool        { return r.forceScoAudio }

func (r *Registry) IsBonded(peer string) bool { return r.bondedFn(peer) }

func (r *Registry) RemoveStateMachine(peer string) {
	r.mu.Lock()
	e, ok := r.machines[peer]
	delete(r.machines, peer)
	r.mu.Unlock()
	if ok {
		e.machine.Destroy()
	}
}

func (r *Registry) SendBroadcast(event hfp.BroadcastEvent) {
	r.bus.Publish(eventbus.Topic(event.Peer), event)
}

func (r *Registry) StartCallActivity(number string) {
	if r.onCallActivity != nil {
		r.onCallActivity(r.active.Load(), number)
	}
}

func (r *Registry) StartVoiceCommandActivity() error {
	if r.onVoiceCommand == nil {
		return fmt.Errorf("registry: no voice command handler configured")
	}
	return r.onVoiceCommand(r.active.Load())
}

func (r *Registry) RequestPhonebookAccess(peer string) {
	if r.onAccessRequest != nil {
		r.onAccessRequest(peer)
		return
	}
	r.log.WithField("peer", peer).Warn("RequestPhonebookAccess: no handler, auto-rejecting")
	go r.ReplyPhonebookAccess(peer, false, false)
}
