package epoll

import (
	"testing"

	"github.com/beastsam/shadow/epoll/epollflag"
	"github.com/beastsam/shadow/epoll/vdescriptor"
)

func TestEvaluateReadyLevelTriggered(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true})
	w.flags |= epollflag.Watching

	if evaluateReady(w) {
		t.Fatalf("not readable yet, should not be ready")
	}
	d.SetReadable(true)
	if !evaluateReady(w) {
		t.Fatalf("expected ready once readable")
	}
	// Level-triggered stays ready across repeated evaluation with no change.
	if !evaluateReady(w) {
		t.Fatalf("expected level-triggered watch to remain ready")
	}
}

func TestEvaluateReadyEdgeTriggeredSuppressesRepeat(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true, EdgeTriggered: true})
	w.flags |= epollflag.Watching

	d.SetReadable(true)
	if !evaluateReady(w) {
		t.Fatalf("expected first edge report to be ready")
	}
	w.markReported(true, false)

	if evaluateReady(w) {
		t.Fatalf("expected no report without an intervening change")
	}

	d.SetReadable(false)
	d.SetReadable(true)
	if !evaluateReady(w) {
		t.Fatalf("expected a report after a fresh transition")
	}
}

func TestEvaluateReadyOneShotSuppressesUntilMod(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true, OneShot: true})
	w.flags |= epollflag.Watching

	d.SetReadable(true)
	if !evaluateReady(w) {
		t.Fatalf("expected first one-shot report to be ready")
	}
	w.markReported(false, true)

	if evaluateReady(w) {
		t.Fatalf("expected one-shot to suppress further reports")
	}

	w.applySubscription(Subscription{WaitRead: true, OneShot: true})
	if !evaluateReady(w) {
		t.Fatalf("expected MOD to re-arm one-shot reporting")
	}
}

func TestEvaluateReadyClosedSuppresses(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true})
	w.flags |= epollflag.Watching
	d.SetReadable(true)
	if !evaluateReady(w) {
		t.Fatalf("expected ready before close")
	}
	d.SetClosed()
	if evaluateReady(w) {
		t.Fatalf("expected closed descriptor to suppress readiness")
	}
}

func TestEvaluateReadyNotWatchingSuppresses(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true})
	d.SetReadable(true)
	// Watching bit deliberately left unset (lazy-deleted watch).
	if evaluateReady(w) {
		t.Fatalf("expected non-watching watch to never be ready")
	}
}

func TestEvaluateReadyMergesReadAndWrite(t *testing.T) {
	d := vdescriptor.NewMemory(1)
	w := newWatch(d, Subscription{WaitRead: true, WaitWrite: true})
	w.flags |= epollflag.Watching
	d.SetStatus(vdescriptor.Status{Active: true, Readable: true, Writable: true})
	if !evaluateReady(w) {
		t.Fatalf("expected ready with both directions satisfied")
	}
}
