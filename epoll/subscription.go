package epoll

// Subscription is the last-applied mask for one Watch: which edges the
// application cares about, which reporting mode applies, and the opaque
// cookie returned with each event.
type Subscription struct {
	WaitRead      bool
	WaitWrite     bool
	EdgeTriggered bool
	OneShot       bool
	Cookie        uint64
}
