// Command epolldemo is a runnable walkthrough of the OS-passthrough merge
// scenario: one virtual descriptor and one raw OS descriptor are registered
// on the same Epoll, and a single Collect call reports both in order
// (virtual watches first, then OS-backed events).
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/beastsam/shadow/epoll"
	"github.com/beastsam/shadow/epoll/osmux"
	"github.com/beastsam/shadow/epoll/simtask"
	"github.com/beastsam/shadow/epoll/vdescriptor"
)

// demoHost is the minimal vdescriptor.Host the demo binary needs: it just
// notes that the epoll asked to be torn down.
type demoHost struct{}

func (demoHost) CloseDescriptor(h vdescriptor.Handle) {
	fmt.Printf("host: epoll %d closed\n", h)
}

// demoProcess drives one Collect call per scheduled continuation and prints
// what it sees, standing in for the simulator's own process loop.
type demoProcess struct {
	e    *epoll.Epoll
	done chan struct{}
}

func (p *demoProcess) WantsNotify(vdescriptor.Handle) bool { return true }

func (p *demoProcess) Continue() {
	out := make([]epoll.Event, 8)
	n, err := p.e.Collect(out, 8)
	if err != nil {
		fmt.Println("collect error:", err)
		return
	}
	for i := 0; i < n; i++ {
		fmt.Printf("event: cookie=%d in=%v out=%v edge=%v\n", out[i].Cookie, out[i].In, out[i].Out, out[i].Edge)
	}
	if n > 0 {
		close(p.done)
	}
}

func (p *demoProcess) IsRunning() bool { return true }

func main() {
	sched := simtask.NewVirtualScheduler()
	proc := &demoProcess{done: make(chan struct{})}
	e, err := epoll.New(1, demoHost{}, proc, sched, epoll.DefaultConfig())
	if err != nil {
		fmt.Println("failed to create epoll:", err)
		os.Exit(1)
	}
	proc.e = e
	fmt.Println("Start Service Successfully")
	fmt.Println("PID: ", os.Getpid())

	virtualFd := vdescriptor.NewMemory(2)
	if err := e.Control(epoll.OpAdd, virtualFd, epoll.Subscription{WaitRead: true, Cookie: 100}); err != nil {
		fmt.Println("ADD virtual fd failed:", err)
		os.Exit(1)
	}

	r, w, err := os.Pipe()
	if err != nil {
		fmt.Println("pipe failed:", err)
		os.Exit(1)
	}
	defer r.Close()
	defer w.Close()
	if err := e.ControlOS(osmux.OpAdd, int(r.Fd()), osmux.Interest{Read: true}); err != nil {
		fmt.Println("ControlOS ADD failed:", err)
		os.Exit(1)
	}

	if _, err := w.Write([]byte("ready")); err != nil {
		fmt.Println("pipe write failed:", err)
		os.Exit(1)
	}
	virtualFd.SetReadable(true)

	sched.Advance(epoll.DefaultConfig().NotifyDelay)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	select {
	case <-proc.done:
	case <-signalChan:
	}

	e.Close()
	fmt.Println("")
	fmt.Println("Service Stopped")
}
