// Package listenerbus implements the publish/dispatch mechanism of
// spec.md §4.8, grounded on original_source/src/service.cpp's
// register_listener/call_listeners. Registration is immutable once
// Run is called (spec.md §9, "Listener registration after startup is
// not supported").
package listenerbus

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/reinferio/saltfish/internal/logging"
)

// RequestKind identifies which RPC produced a published message. ALL
// matches every publication, regardless of kind.
type RequestKind int

const (
	CREATE_DATASET RequestKind = iota
	DELETE_DATASET
	GENERATE_ID
	GET_DATASETS
	PUT_RECORDS
	ALL
)

// Handler processes one published message. It runs on its own
// per-registration queue, so it never blocks another handler and never
// sees two invocations concurrently.
type Handler func(kind RequestKind, payload []byte)

type registration struct {
	kind    RequestKind
	handler Handler
	queue   chan message
}

type message struct {
	kind    RequestKind
	payload []byte
}

const queueDepth = 256

// Publisher forwards a published message to an out-of-process channel
// (spec.md §6 "Pub/sub"). *objectstore.RedisStore satisfies this.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Bus dispatches published messages to every handler whose registered
// kind matches (or is ALL), each on its own serialized queue.
type Bus struct {
	registrations *xsync.MapOf[int, *registration]
	next          int
	started       bool

	remote        Publisher
	remoteChannel string
	log           *logging.Logger
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{registrations: xsync.NewMapOf[int, *registration]()}
}

// SetRemote additionally forwards every Publish to pub on channel, as
// a (request_kind_byte, serialized_request_bytes) pair (spec.md §6),
// so an out-of-process subscriber can observe the same traffic as the
// in-process handlers. Failures are logged at WARNING and otherwise
// ignored — a slow or unreachable remote subscriber must not affect
// the RPC path.
func (b *Bus) SetRemote(pub Publisher, channel string, log *logging.Logger) {
	b.remote = pub
	b.remoteChannel = channel
	b.log = log
}

// Register adds a handler for kind (or ALL). Must be called before Run;
// panics otherwise, matching the "static registration at construction"
// contract of spec.md §9.
func (b *Bus) Register(kind RequestKind, handler Handler) {
	if b.started {
		panic("listenerbus: cannot Register after Run has started")
	}
	id := b.next
	b.next++
	r := &registration{kind: kind, handler: handler, queue: make(chan message, queueDepth)}
	b.registrations.Store(id, r)
}

// Run starts one consumer goroutine per registered handler and freezes
// the registry. Must be called exactly once, after all Register calls.
func (b *Bus) Run() {
	b.started = true
	b.registrations.Range(func(_ int, r *registration) bool {
		go func(r *registration) {
			for m := range r.queue {
				r.handler(m.kind, m.payload)
			}
		}(r)
		return true
	})
}

// Publish dispatches payload to every handler registered for kind or
// for ALL. Publish never blocks on handler execution: it only enqueues
// onto each matching handler's own queue (dropping, with no error
// surfaced to the caller, if a queue is saturated — a slow subscriber
// must not back-pressure the RPC path).
func (b *Bus) Publish(kind RequestKind, payload []byte) {
	b.registrations.Range(func(_ int, r *registration) bool {
		if r.kind == kind || r.kind == ALL {
			select {
			case r.queue <- message{kind: kind, payload: payload}:
			default:
			}
		}
		return true
	})
	if b.remote != nil {
		go b.publishRemote(kind, payload)
	}
}

func (b *Bus) publishRemote(kind RequestKind, payload []byte) {
	msg := make([]byte, len(payload)+1)
	msg[0] = byte(kind)
	copy(msg[1:], payload)
	if err := b.remote.Publish(context.Background(), b.remoteChannel, msg); err != nil && b.log != nil {
		b.log.Warningf("listenerbus: redis publish failed: %v", err)
	}
}
