package epoll

import (
	"github.com/beastsam/shadow/epoll/simtask"
	"github.com/beastsam/shadow/epoll/vdescriptor"
)

// fakeProcess is a minimal vdescriptor.Process for tests: it tracks how
// many times Continue was invoked and lets tests script WantsNotify/
// IsRunning and an optional callback to run during Continue (standing in
// for the application's own collect/control calls during a continuation).
type fakeProcess struct {
	wants         bool
	running       bool
	continueCount int
	onContinue    func()
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{wants: true, running: true}
}

func (p *fakeProcess) WantsNotify(vdescriptor.Handle) bool { return p.wants }

func (p *fakeProcess) Continue() {
	p.continueCount++
	if p.onContinue != nil {
		p.onContinue()
	}
}

func (p *fakeProcess) IsRunning() bool { return p.running }

// fakeHost is a minimal vdescriptor.Host for tests.
type fakeHost struct {
	closed []vdescriptor.Handle
}

func (h *fakeHost) CloseDescriptor(handle vdescriptor.Handle) {
	h.closed = append(h.closed, handle)
}

// newTestEpoll wires up an Epoll with a fakeHost, fakeProcess, and a
// VirtualScheduler, returning all three so tests can drive the scheduler's
// virtual clock and assert on host/process interactions.
func newTestEpoll(t interface{ Fatalf(string, ...interface{}) }) (*Epoll, *fakeHost, *fakeProcess, *simtask.VirtualScheduler) {
	return newTestEpollWithHandle(t, 1)
}

func newTestEpollWithHandle(t interface{ Fatalf(string, ...interface{}) }, handle vdescriptor.Handle) (*Epoll, *fakeHost, *fakeProcess, *simtask.VirtualScheduler) {
	host := &fakeHost{}
	proc := newFakeProcess()
	sched := simtask.NewVirtualScheduler()
	e, err := New(handle, host, proc, sched, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, host, proc, sched
}
