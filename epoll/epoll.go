// Package epoll implements the virtualized event-notification multiplexer
// core for the shadow network simulator: Watch, Watch Table, Readiness
// Evaluator, Notification Controller, and OS passthrough (see SPEC_FULL.md).
package epoll

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/beastsam/shadow/epoll/osmux"
	"github.com/beastsam/shadow/epoll/simtask"
	"github.com/beastsam/shadow/epoll/vdescriptor"
	"github.com/sirupsen/logrus"
)

// Op is one of the three control operations epoll_ctl supports.
type Op int

const (
	OpAdd Op = iota
	OpMod
	OpDel
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "ADD"
	case OpMod:
		return "MOD"
	case OpDel:
		return "DEL"
	default:
		return "unknown"
	}
}

// Valid reports whether o is one of the three recognized operations. The
// core itself does not require this (an unrecognized op is logged and
// ignored, per spec.md §7's Open Question); callers wanting strict
// validation can check it themselves before calling Control.
func (o Op) Valid() bool {
	return o == OpAdd || o == OpMod || o == OpDel
}

// Event is one reportable readiness event, as returned by Collect.
type Event struct {
	Cookie uint64
	In     bool
	Out    bool
	Edge   bool
}

// epollState holds the small flag set from spec.md §3: scheduled,
// notifying, closed, plus an internal finalized bit guarding idempotent
// teardown.
type epollState uint8

const (
	stateScheduled epollState = 1 << iota
	stateNotifying
	stateClosed
	stateFinalized
)

// Epoll is the virtualized event-notification multiplexer. It is itself a
// virtual descriptor (it satisfies vdescriptor.Descriptor), which is how an
// Epoll can be ADDed into another Epoll's watch table.
type Epoll struct {
	handle  vdescriptor.Handle
	host    vdescriptor.Host
	process vdescriptor.Process
	sched   simtask.Scheduler
	cfg     Config

	table *watchTable
	mux   osmux.Mux

	state     epollState
	readable  bool
	refCount  int32
	listeners map[vdescriptor.Listener]struct{}

	log *logrus.Entry
}

// New creates an Epoll owned by process, scheduling its deferred
// notifications on sched and proxying OS descriptors through a fresh
// kernel epoll instance. The epoll instance starts with a reference count
// of one, owned by the caller.
func New(handle vdescriptor.Handle, host vdescriptor.Host, process vdescriptor.Process, sched simtask.Scheduler, cfg Config) (*Epoll, error) {
	mux, err := osmux.New()
	if err != nil {
		return nil, fmt.Errorf("epoll: create os multiplexer: %w", err)
	}
	return &Epoll{
		handle:    handle,
		host:      host,
		process:   process,
		sched:     sched,
		cfg:       cfg,
		table:     newWatchTable(),
		mux:       mux,
		refCount:  1,
		listeners: make(map[vdescriptor.Listener]struct{}),
		log:       log.WithField("epoll", uint64(handle)),
	}, nil
}

// --- vdescriptor.Descriptor ---

// Handle returns the epoll instance's own stable handle.
func (e *Epoll) Handle() vdescriptor.Handle { return e.handle }

// Status returns the epoll instance's own descriptor status: permanently
// active, readable iff at least one watch or the OS mux has a reportable
// event, per spec.md §3.
func (e *Epoll) Status() vdescriptor.Status {
	return vdescriptor.Status{
		Active:   true,
		Readable: e.readable,
		Closed:   e.state&stateFinalized != 0,
	}
}

// Subscribe registers l to be notified when this epoll's own readiness
// changes, supporting nested epolls.
func (e *Epoll) Subscribe(l vdescriptor.Listener) { e.listeners[l] = struct{}{} }

// Unsubscribe removes a previously registered nested-epoll listener.
func (e *Epoll) Unsubscribe(l vdescriptor.Listener) { delete(e.listeners, l) }

// Acquire increments the epoll's reference count. Used both by a parent
// epoll watching this one, and by the scheduled notify task to keep the
// epoll alive for the duration of its run (spec.md §9).
func (e *Epoll) Acquire() { atomic.AddInt32(&e.refCount, 1) }

// Release decrements the reference count, tearing the epoll down once it
// reaches zero.
func (e *Epoll) Release() {
	if atomic.AddInt32(&e.refCount, -1) <= 0 {
		e.finalizeClose()
	}
}

func (e *Epoll) setReadable(v bool) {
	if e.readable == v {
		return
	}
	e.readable = v
	for l := range e.listeners {
		l.StatusChanged(e)
	}
}

// --- application-facing contract ---

// Control applies one ADD/MOD/DEL operation for descriptor d with the given
// subscription. An unrecognized op is logged and ignored, matching the
// original source's behavior (spec.md §7 Open Questions); use Op.Valid if
// the caller wants strict validation instead.
func (e *Epoll) Control(op Op, d vdescriptor.Descriptor, sub Subscription) error {
	e.log.WithFields(logrus.Fields{"op": op.String(), "descriptor": uint64(d.Handle())}).Debug("control")

	switch op {
	case OpAdd:
		if _, err := e.table.add(d, sub); err != nil {
			return err
		}
		d.Subscribe(e)
		e.check()
		return nil

	case OpMod:
		if _, err := e.table.mod(d.Handle(), sub); err != nil {
			return err
		}
		e.check()
		return nil

	case OpDel:
		w, err := e.table.del(d.Handle())
		if err != nil {
			return err
		}
		d.Unsubscribe(e)
		w.release()
		return nil

	default:
		e.log.Warnf("epoll: ignoring unrecognized control op %v", op)
		return nil
	}
}

// ControlOS mirrors control against the OS multiplexer for a raw
// descriptor the simulator does not virtualize.
func (e *Epoll) ControlOS(op osmux.Op, fd int, interest osmux.Interest) error {
	return e.mux.Control(op, fd, interest)
}

// StatusChanged is the inbound notification from the descriptor layer: d
// has changed status and must be re-evaluated. d must already be tracked;
// receiving this for an untracked descriptor is an invariant violation
// (spec.md §7, §9 Open Questions) and is never recovered from.
func (e *Epoll) StatusChanged(d vdescriptor.Descriptor) {
	w, ok := e.table.lookup(d.Handle())
	if !ok {
		panic(fmt.Sprintf("epoll: status-changed for untracked descriptor %d", uint64(d.Handle())))
	}
	// Refresh this watch directly so every transition sets its changed bits,
	// even when check returns early or its sweep stops before reaching w.
	w.refresh()
	e.check()
}

// Close marks the epoll closed. Finalization happens immediately if no
// notify task is scheduled, or is deferred to that task's completion
// otherwise (spec.md §4.4).
func (e *Epoll) Close() {
	e.state |= stateClosed
	if e.state&stateScheduled == 0 {
		e.finalizeClose()
	}
}

func (e *Epoll) closed() bool { return e.state&stateClosed != 0 }

// finalizeClose is idempotent: it tears down the watch table, unsubscribes
// from every watched descriptor, closes the OS multiplexer handle, and
// tells the host to stop tracking this descriptor.
func (e *Epoll) finalizeClose() {
	if e.state&stateFinalized != 0 {
		return
	}
	e.state |= stateFinalized

	e.table.each(func(w *watch) bool {
		w.descriptor.Unsubscribe(e)
		w.release()
		return true
	})
	e.table.clear()
	if err := e.mux.Close(); err != nil {
		e.log.WithError(err).Warn("error closing os multiplexer")
	}
	if e.host != nil {
		e.host.CloseDescriptor(e.handle)
	}
}

var _ vdescriptor.Descriptor = (*Epoll)(nil)
var _ vdescriptor.Listener = (*Epoll)(nil)

// notifyDelay returns the configured virtual delay, defaulting to 1 (the
// spec's "small positive virtual delay") when unset.
func (e *Epoll) notifyDelay() uint64 {
	if e.cfg.NotifyDelay == 0 {
		return 1
	}
	return e.cfg.NotifyDelay
}

// zeroTimeout is used for every OS mux Wait call the core makes: the core
// never blocks (spec.md §5).
const zeroTimeout = time.Duration(0)
