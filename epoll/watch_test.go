package epoll

import (
	"testing"

	"github.com/beastsam/shadow/epoll/epollflag"
	"github.com/beastsam/shadow/epoll/vdescriptor"
)

func TestWatchRefreshTracksChanges(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true})

	w.refresh()
	if w.flags.Any(epollflag.ReadChanged) {
		t.Fatalf("no transition yet, ReadChanged should be clear")
	}

	d.SetReadable(true)
	w.refresh()
	if !w.flags.Any(epollflag.ReadChanged) {
		t.Fatalf("expected ReadChanged after transition to readable")
	}
	if !w.flags.Any(epollflag.Readable) {
		t.Fatalf("expected Readable to be set")
	}

	w.markReported(false, false)
	if w.flags.Any(epollflag.ReadChanged) {
		t.Fatalf("markReported should clear ReadChanged")
	}

	w.refresh()
	if w.flags.Any(epollflag.ReadChanged) {
		t.Fatalf("no new transition, ReadChanged should stay clear")
	}
}

func TestWatchRefreshPreservesStickyBits(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true, EdgeTriggered: true})
	w.flags |= epollflag.Watching

	w.markReported(true, false)
	if !w.flags.Any(epollflag.EdgeReported) {
		t.Fatalf("expected EdgeReported set")
	}

	w.refresh()
	if !w.flags.Any(epollflag.EdgeReported) {
		t.Fatalf("refresh must preserve EdgeReported")
	}
	if !w.flags.Any(epollflag.Watching) {
		t.Fatalf("refresh must preserve Watching")
	}
}

func TestWatchAcquireReleaseDropsDescriptorRef(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{})
	if got := d.RefCount(); got != 2 {
		t.Fatalf("expected descriptor refcount 2 after newWatch (1 initial + 1 acquired), got %d", got)
	}

	w.acquire()
	if got := d.RefCount(); got != 2 {
		t.Fatalf("watch.acquire must not touch the descriptor's own refcount, got %d", got)
	}

	w.release()
	if got := d.RefCount(); got != 2 {
		t.Fatalf("first release (of two) should not drop descriptor ref, got %d", got)
	}
	w.release()
	if got := d.RefCount(); got != 1 {
		t.Fatalf("last release should drop descriptor ref, got %d", got)
	}
}

func TestApplySubscriptionRearmsReporting(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true, OneShot: true})
	w.markReported(false, true)
	if !w.flags.Any(epollflag.OneShotReported) {
		t.Fatalf("expected OneShotReported set")
	}

	w.applySubscription(Subscription{WaitRead: true, OneShot: true})
	if w.flags.Any(epollflag.OneShotReported) {
		t.Fatalf("MOD must clear OneShotReported")
	}
}
