// Package replysync implements the fan-in barrier of spec.md §4.6,
// a direct Go translation of original_source/src/service_utils.hpp's
// ReplySync class.
package replysync

import "sync"

// ReplySync waits for n acks, invoking exactly one of onSuccess or an
// error continuation, exactly once, under a single mutex (spec.md §8
// property 4).
type ReplySync struct {
	mu         sync.Mutex
	nAcks      uint32
	okReceived uint32
	replied    bool
	onSuccess  func()
}

// New constructs a ReplySync expecting nAcks successful Ok() calls
// before invoking onSuccess.
func New(nAcks uint32, onSuccess func()) *ReplySync {
	return &ReplySync{nAcks: nAcks, onSuccess: onSuccess}
}

// Ok records one successful ack. When the nAcks-th Ok() arrives and no
// error has been recorded, onSuccess runs exactly once.
func (r *ReplySync) Ok() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replied {
		return
	}
	r.okReceived++
	if r.okReceived == r.nAcks {
		r.replied = true
		r.onSuccess()
	}
}

// Error records a failure. If no prior success or error fired, onError
// runs exactly once; otherwise this call is a no-op.
func (r *ReplySync) Error(onError func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replied {
		return
	}
	r.replied = true
	onError()
}

// OkReceived returns the number of Ok() calls processed so far, for
// diagnostics/tests.
func (r *ReplySync) OkReceived() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.okReceived
}
