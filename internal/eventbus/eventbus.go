// Package eventbus is the process-wide broadcast hub hfpagentd uses to fan
// Service.SendBroadcast events (vendor-specific AT commands, HF indicator
// changes, connection/audio state changes) out to anything that wants to
// observe a device without being wired into the registry directly — a
// debug console, a metrics sink, a future notification daemon.
package eventbus

import (
	"sync"

	"github.com/cskr/pubsub/v2"
)

// Topic identifies a broadcast stream. The registry publishes on one topic
// per peer plus one "*" wildcard topic carrying every event, so a
// subscriber can watch a single device or everything at once.
type Topic string

// Wildcard is the topic that receives a copy of every Publish call
// regardless of the topic it was published under.
const Wildcard Topic = "*"

// Handler is the publish/subscribe surface hfpagentd depends on. It exists
// so the registry and console can be tested against a fake without pulling
// in pubsub.
type Handler interface {
	Publish(topic Topic, data any)
	Subscribe(topics ...Topic) Subscription
}

// Subscription is a live subscription returned by Subscribe. Callers must
// call Unsubscribe when done listening, and must keep draining C until the
// unsubscribe completes or the publisher can block.
type Subscription struct {
	C chan any

	unsub func()
}

// Unsubscribe tears down the subscription. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.unsub != nil {
		s.unsub()
	}
}

// busHandler is the default Handler, backed by cskr/pubsub.
type busHandler struct {
	mu sync.Mutex
	ps *pubsub.PubSub[string, any]
}

// New builds a Handler with the given per-subscriber channel capacity.
func New(capacity int) Handler {
	return &busHandler{ps: pubsub.New[string, any](capacity)}
}

func (b *busHandler) Publish(topic Topic, data any) {
	b.mu.Lock()
	ps := b.ps
	b.mu.Unlock()
	ps.Pub(data, string(topic), string(Wildcard))
}

func (b *busHandler) Subscribe(topics ...Topic) Subscription {
	b.mu.Lock()
	ps := b.ps
	b.mu.Unlock()

	keys := make([]string, len(topics))
	for i, t := range topics {
		keys[i] = string(t)
	}
	ch := ps.Sub(keys...)
	return Subscription{
		C: ch,
		unsub: func() {
			go ps.Unsub(ch, keys...)
		},
	}
}

// nilHandler discards every publish and returns closed subscriptions; used
// when a deployment disables broadcast fan-out entirely.
type nilHandler struct{}

// NilHandler returns a disabled Handler.
func NilHandler() Handler { return nilHandler{} }

func (nilHandler) Publish(Topic, any) {}

func (nilHandler) Subscribe(...Topic) Subscription {
	ch := make(chan any)
	close(ch)
	return Subscription{C: ch}
}
