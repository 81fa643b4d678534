// Package osmux proxies control and collection operations to the host's
// real epoll instance, for raw file descriptors the simulator does not
// virtualize. It mirrors the shape of the teacher's poller.EventLoop, but
// exposes synchronous Control/Wait/Ready calls instead of running its own
// dispatch loop, since the epoll core drives it directly from check and
// collect rather than the other way around.
package osmux

import "time"

// Op mirrors the three epoll_ctl operations.
type Op int

const (
	OpAdd Op = iota
	OpMod
	OpDel
)

// Event is a single OS-backed readiness event.
type Event struct {
	Fd  uint64
	In  bool
	Out bool
	Err bool
}

// Interest describes which directions a raw descriptor is registered for.
type Interest struct {
	Read  bool
	Write bool
}

// Mux is the OS passthrough handle. Implementations are platform-specific;
// see mux_linux.go and mux_other.go.
type Mux interface {
	// Control mirrors epoll_ctl for a raw descriptor.
	Control(op Op, fd int, interest Interest) error
	// Wait mirrors epoll_wait with the given timeout, filling out and
	// returning the number of events written.
	Wait(out []Event, timeout time.Duration) (int, error)
	// Ready is the nonblocking oracle: true if the underlying OS
	// multiplexer currently has at least one pending event, without
	// consuming it.
	Ready() (bool, error)
	// Close releases the OS multiplexer handle.
	Close() error
}
