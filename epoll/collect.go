package epoll

import (
	"github.com/beastsam/shadow/epoll/epollflag"
	"github.com/beastsam/shadow/epoll/osmux"
)

// Collect walks the watch table, writing one Event per ready watch into
// out (up to max), marking each reported watch's sticky bits, then fills
// any remaining capacity from the OS multiplexer with a zero timeout.
// Finally it invokes check to recompute the epoll's own readable status
// and possibly re-arm a notify task. Grounded on the original source's
// epoll_getEvents.
func (e *Epoll) Collect(out []Event, max int) (int, error) {
	if max <= 0 || len(out) == 0 {
		return 0, nil
	}
	if max > len(out) {
		max = len(out)
	}

	n := 0
	e.table.each(func(w *watch) bool {
		if n >= max {
			return false
		}
		if !evaluateReady(w) {
			return true
		}

		ev := Event{Cookie: w.sub.Cookie}
		if w.flags.Has(epollflag.Readable | epollflag.WaitingRead) {
			ev.In = true
		}
		if w.flags.Has(epollflag.Writable | epollflag.WaitingWrite) {
			ev.Out = true
		}
		edge := w.flags.Any(epollflag.EdgeTriggered)
		if edge {
			ev.Edge = true
		}
		out[n] = ev
		n++

		w.markReported(edge, w.flags.Any(epollflag.OneShot))
		return true
	})

	if n < max {
		space := max - n
		osEvents := make([]osmux.Event, space)
		got, err := e.mux.Wait(osEvents, zeroTimeout)
		if err != nil {
			e.log.WithError(err).Warn("os multiplexer wait failed during collect")
		}
		for i := 0; i < got; i++ {
			out[n] = Event{
				Cookie: osEvents[i].Fd,
				In:     osEvents[i].In,
				Out:    osEvents[i].Out,
			}
			n++
		}
	}

	e.check()
	return n, nil
}
