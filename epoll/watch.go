package epoll

import (
	"sync/atomic"

	"github.com/beastsam/shadow/epoll/epollflag"
	"github.com/beastsam/shadow/epoll/vdescriptor"
)

// watch is a per-(epoll, virtual-descriptor) subscription record. Its
// sticky-vs-fresh flag split is grounded on the teacher's Flow struct
// (flow.go), which diffs old against new status before deciding whether to
// touch the event loop's registration; here the same diff drives the
// read/write-changed bits that make edge-triggered mode work.
type watch struct {
	descriptor vdescriptor.Descriptor
	handle     vdescriptor.Handle
	sub        Subscription
	flags      epollflag.Flags
	refCount   int32
}

// newWatch creates a Watch for descriptor, acquiring one strong reference
// to it on the table's behalf.
func newWatch(d vdescriptor.Descriptor, sub Subscription) *watch {
	d.Acquire()
	return &watch{
		descriptor: d,
		handle:     d.Handle(),
		sub:        sub,
		refCount:   1,
	}
}

// refresh overwrites the status- and mask-derived flags from fresh inputs
// while preserving the sticky flags, then sets read/write-changed if the
// corresponding readiness bit flipped since the last refresh.
func (w *watch) refresh() {
	sticky := w.flags.Sticky()
	wasReadable := w.flags.Any(epollflag.Readable)
	wasWritable := w.flags.Any(epollflag.Writable)

	status := w.descriptor.Status()
	var fresh epollflag.Flags
	if status.Active {
		fresh |= epollflag.Active
	}
	if status.Readable {
		fresh |= epollflag.Readable
	}
	if status.Writable {
		fresh |= epollflag.Writable
	}
	if status.Closed {
		fresh |= epollflag.Closed
	}
	if w.sub.WaitRead {
		fresh |= epollflag.WaitingRead
	}
	if w.sub.WaitWrite {
		fresh |= epollflag.WaitingWrite
	}
	if w.sub.EdgeTriggered {
		fresh |= epollflag.EdgeTriggered
	}
	if w.sub.OneShot {
		fresh |= epollflag.OneShot
	}

	w.flags = fresh | sticky

	if status.Readable != wasReadable {
		w.flags |= epollflag.ReadChanged
	}
	if status.Writable != wasWritable {
		w.flags |= epollflag.WriteChanged
	}
}

// markReported sets the sticky reporting bits for a just-collected event
// and clears both change bits, per spec.md §4.1.
func (w *watch) markReported(edge, oneShot bool) {
	if edge {
		w.flags |= epollflag.EdgeReported
	}
	if oneShot {
		w.flags |= epollflag.OneShotReported
	}
	w.flags &^= epollflag.ReadChanged
	w.flags &^= epollflag.WriteChanged
}

// applySubscription replaces the watch's subscription on MOD, re-arming
// edge-triggered and one-shot reporting.
func (w *watch) applySubscription(sub Subscription) {
	w.sub = sub
	w.flags &^= epollflag.EdgeReported
	w.flags &^= epollflag.OneShotReported
}

// acquire increments the watch's reference count. Atomic even though the
// epoll core is single-threaded per host (spec.md §5), matching the wider
// pack's convention of guarding reference counts with sync/atomic rather
// than a plain int.
func (w *watch) acquire() {
	atomic.AddInt32(&w.refCount, 1)
}

// release decrements the reference count, dropping the strong descriptor
// reference once the count reaches zero.
func (w *watch) release() {
	if atomic.AddInt32(&w.refCount, -1) <= 0 {
		w.descriptor.Release()
	}
}
