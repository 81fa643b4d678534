// Package simtask is a minimal virtual-time deferred task scheduler,
// standing in for the simulation scheduler the epoll core treats as an
// external collaborator. It is adapted from a channel-of-channels
// worker-pool idiom, collapsed to a single ordered virtual-time queue: the
// epoll core's scheduling model is single-threaded and cooperative per
// simulated host, so concurrent worker fan-out has no place here.
package simtask

import "container/heap"

// Task is a unit of deferred work. Run executes the task; Release, if set,
// runs after Run regardless of outcome and is used by callers (such as the
// epoll core) to drop a reference held for the task's lifetime.
type Task struct {
	Run     func()
	Release func()
}

// Scheduler schedules a Task to run after delay virtual time units have
// elapsed, returning false if the task could not be scheduled (for example
// because the scheduler has been closed).
type Scheduler interface {
	Schedule(delay uint64, t Task) bool
}

type entry struct {
	at   uint64
	seq  uint64
	task Task
}

type entryQueue []*entry

func (q entryQueue) Len() int { return len(q) }
func (q entryQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q entryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *entryQueue) Push(x any)   { *q = append(*q, x.(*entry)) }
func (q *entryQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// VirtualScheduler is a Scheduler driven by an explicit virtual clock
// (Advance), rather than a real wall clock. It is the Scheduler
// implementation used by this package's own tests and by the epoll core's
// demo and tests, standing in for the simulator's real event queue.
type VirtualScheduler struct {
	now    uint64
	seq    uint64
	queue  entryQueue
	closed bool
}

// NewVirtualScheduler returns a VirtualScheduler with its virtual clock at 0.
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{}
}

// Schedule enqueues t to run at now+delay. Returns false once the
// scheduler has been closed.
func (s *VirtualScheduler) Schedule(delay uint64, t Task) bool {
	if s.closed {
		return false
	}
	heap.Push(&s.queue, &entry{at: s.now + delay, seq: s.seq, task: t})
	s.seq++
	return true
}

// Advance moves the virtual clock forward by ticks, running every task due
// at or before the new time, in (time, schedule-order) order.
func (s *VirtualScheduler) Advance(ticks uint64) {
	target := s.now + ticks
	for s.queue.Len() > 0 && s.queue[0].at <= target {
		e := heap.Pop(&s.queue).(*entry)
		s.now = e.at
		e.task.Run()
		if e.task.Release != nil {
			e.task.Release()
		}
	}
	if target > s.now {
		s.now = target
	}
}

// Pending reports how many tasks remain queued.
func (s *VirtualScheduler) Pending() int { return s.queue.Len() }

// Now returns the current virtual time.
func (s *VirtualScheduler) Now() uint64 { return s.now }

// Close stops the scheduler from accepting further tasks. Tasks already
// queued stay queued and still run on later Advance calls.
func (s *VirtualScheduler) Close() {
	s.closed = true
}
