package vdescriptor

// Memory is a minimal in-memory Descriptor for tests and the demo binary.
// Status changes made with SetStatus fan out synchronously to subscribed
// listeners, matching the real descriptor layer's callback contract.
type Memory struct {
	handle    Handle
	status    Status
	listeners map[Listener]struct{}
	refs      int32
}

// NewMemory creates a Memory descriptor with the given handle, initially
// active and otherwise idle.
func NewMemory(handle Handle) *Memory {
	return &Memory{
		handle:    handle,
		status:    Status{Active: true},
		listeners: make(map[Listener]struct{}),
		refs:      1,
	}
}

func (m *Memory) Handle() Handle { return m.handle }
func (m *Memory) Status() Status { return m.status }

func (m *Memory) Subscribe(l Listener)   { m.listeners[l] = struct{}{} }
func (m *Memory) Unsubscribe(l Listener) { delete(m.listeners, l) }

func (m *Memory) Acquire() { m.refs++ }
func (m *Memory) Release() { m.refs-- }

// RefCount returns the descriptor's current reference count, for tests
// asserting on Watch acquire/release behavior.
func (m *Memory) RefCount() int32 { return m.refs }

// SetStatus overwrites the descriptor's status and, if anything changed,
// synchronously notifies every subscribed listener.
func (m *Memory) SetStatus(s Status) {
	if m.status == s {
		return
	}
	m.status = s
	for l := range m.listeners {
		l.StatusChanged(m)
	}
}

// SetReadable is a convenience for the common case of flipping only the
// read-readiness bit.
func (m *Memory) SetReadable(v bool) {
	s := m.status
	s.Readable = v
	m.SetStatus(s)
}

// SetWritable is a convenience for the common case of flipping only the
// write-readiness bit.
func (m *Memory) SetWritable(v bool) {
	s := m.status
	s.Writable = v
	m.SetStatus(s)
}

// SetClosed marks the descriptor closed, notifying listeners.
func (m *Memory) SetClosed() {
	s := m.status
	s.Closed = true
	s.Active = false
	m.SetStatus(s)
}
