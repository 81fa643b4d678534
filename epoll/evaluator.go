package epoll

import "github.com/beastsam/shadow/epoll/epollflag"

// evaluateReady refreshes w from its descriptor's current status and
// subscription mask, then decides whether it currently has a reportable
// event, honoring level-triggered, edge-triggered, and one-shot policies.
// Grounded line-for-line on the original source's _epollwatch_isReady.
func evaluateReady(w *watch) bool {
	w.refresh()

	if w.flags.Any(epollflag.Closed) {
		return false
	}
	if !w.flags.Any(epollflag.Active) {
		return false
	}
	if !w.flags.Any(epollflag.Watching) {
		return false
	}

	hasReadEvent := w.flags.Has(epollflag.Readable | epollflag.WaitingRead)
	hasWriteEvent := w.flags.Has(epollflag.Writable | epollflag.WaitingWrite)

	ready := false
	if w.flags.Any(epollflag.EdgeTriggered) {
		firstReport := !w.flags.Any(epollflag.EdgeReported)
		if hasReadEvent && (w.flags.Any(epollflag.ReadChanged) || firstReport) {
			ready = true
		}
		if hasWriteEvent && (w.flags.Any(epollflag.WriteChanged) || firstReport) {
			ready = true
		}
	} else if hasReadEvent || hasWriteEvent {
		ready = true
	}

	if ready && w.flags.Any(epollflag.OneShot) && w.flags.Any(epollflag.OneShotReported) {
		ready = false
	}

	return ready
}
