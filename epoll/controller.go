package epoll

import (
	"github.com/beastsam/shadow/epoll/simtask"
)

// check is the Notification Controller's core decision point: sweep the
// watch table and the OS oracle, update the epoll's own readable status,
// and schedule at most one deferred notify task if the owning process
// wants notifications. Grounded on the original source's _epoll_check.
func (e *Epoll) check() {
	if e.closed() || e.notifying() {
		return
	}

	ready := e.sweepReady()
	if !ready {
		ready = e.oracleReady()
	}
	e.setReadable(ready)

	if !ready {
		return
	}
	if e.state&stateScheduled != 0 {
		return
	}
	if e.process == nil || !e.process.WantsNotify(e.handle) {
		return
	}

	e.Acquire()
	ok := e.sched.Schedule(e.notifyDelay(), simtask.Task{
		Run:     e.notify,
		Release: e.Release,
	})
	if ok {
		e.state |= stateScheduled
	} else {
		e.Release()
	}
}

// notify is the deferred task body scheduled by check. It re-evaluates
// readiness from scratch (arbitrary control ops and status changes may
// have occurred since scheduling), drives exactly one application
// continuation if anything is still ready, then re-arms via check.
// Grounded on the original source's _epoll_tryNotify.
func (e *Epoll) notify() {
	e.state &^= stateScheduled

	if e.closed() || (e.process != nil && !e.process.IsRunning()) {
		e.finalizeClose()
		return
	}

	ready := e.sweepReady()
	if !ready {
		ready = e.oracleReady()
	}
	if !ready {
		return
	}

	e.state |= stateNotifying
	e.process.Continue()
	e.state &^= stateNotifying

	e.check()
}

func (e *Epoll) notifying() bool { return e.state&stateNotifying != 0 }

// sweepReady walks the watch table, short-circuiting on the first ready
// watch.
func (e *Epoll) sweepReady() bool {
	ready := false
	e.table.each(func(w *watch) bool {
		if evaluateReady(w) {
			ready = true
			return false
		}
		return true
	})
	return ready
}

// oracleReady queries the OS multiplexer's nonblocking readiness oracle,
// logging (but not failing on) any error it returns.
func (e *Epoll) oracleReady() bool {
	ok, err := e.mux.Ready()
	if err != nil {
		e.log.WithError(err).Warn("os oracle check failed")
		return false
	}
	return ok
}
