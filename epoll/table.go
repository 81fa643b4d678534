package epoll

import (
	"errors"

	"github.com/beastsam/shadow/epoll/epollflag"
	"github.com/beastsam/shadow/epoll/vdescriptor"
)

// ErrExists is returned by Control(OpAdd, ...) when the descriptor is
// already registered with the epoll instance.
var ErrExists = errors.New("epoll: descriptor already registered")

// ErrNotFound is returned by Control(OpMod/OpDel, ...) when the descriptor
// is not registered with the epoll instance.
var ErrNotFound = errors.New("epoll: descriptor not registered")

// watchTable is the mapping, owned by one epoll instance, from virtual
// descriptor handle to Watch. Grounded on the teacher's
// poller.EventLoop.handler map[int32]ISockNotify and its
// Register/Modify/UnRegister trio.
type watchTable struct {
	watches map[vdescriptor.Handle]*watch
}

func newWatchTable() *watchTable {
	return &watchTable{watches: make(map[vdescriptor.Handle]*watch)}
}

func (t *watchTable) lookup(h vdescriptor.Handle) (*watch, bool) {
	w, ok := t.watches[h]
	return w, ok
}

// add enforces at-most-one Watch per handle, inserting a new Watch marked
// Watching.
func (t *watchTable) add(d vdescriptor.Descriptor, sub Subscription) (*watch, error) {
	h := d.Handle()
	if _, exists := t.watches[h]; exists {
		return nil, ErrExists
	}
	w := newWatch(d, sub)
	w.flags |= epollflag.Watching
	t.watches[h] = w
	return w, nil
}

// mod replaces the subscription on an existing Watch, re-arming its
// reporting bits.
func (t *watchTable) mod(h vdescriptor.Handle, sub Subscription) (*watch, error) {
	w, ok := t.watches[h]
	if !ok {
		return nil, ErrNotFound
	}
	w.applySubscription(sub)
	return w, nil
}

// del clears Watching and removes the entry, returning the watch so the
// caller can release the table's own reference. Lazy deletion: any direct holder of w from an in-flight sweep
// sees Watching cleared rather than the entry being violently excised.
func (t *watchTable) del(h vdescriptor.Handle) (*watch, error) {
	w, ok := t.watches[h]
	if !ok {
		return nil, ErrNotFound
	}
	w.flags &^= epollflag.Watching
	delete(t.watches, h)
	return w, nil
}

// each calls fn for every Watch currently in the table, in unspecified but
// stable-per-call order, stopping early if fn returns false.
func (t *watchTable) each(fn func(*watch) bool) {
	for _, w := range t.watches {
		if !fn(w) {
			return
		}
	}
}

func (t *watchTable) len() int { return len(t.watches) }

// clear empties the table without touching reference counts; callers that
// need to release owned references first must do so before calling clear.
func (t *watchTable) clear() {
	for h := range t.watches {
		delete(t.watches, h)
	}
}
