// Package livereload tells connected browsers to reload after a rebuild,
// speaking the LiveReload protocol over WebSockets.
package livereload

import (
	"sync/atomic"
)

// Reload is a notification that a new site generation is being served.
type Reload struct {
	BuildID string
}

// Broker fans Reload notifications out to registered clients.
//
// Concurrency model: a single internal event loop goroutine owns the client
// set. Public methods talk to it through channels.
type Broker struct {
	subscribeCh   chan chan Reload
	unsubscribeCh chan chan Reload
	publishCh     chan Reload
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan chan Reload),
		unsubscribeCh: make(chan chan Reload),
		publishCh:     make(chan Reload, 16),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan Reload]struct{})

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case r := <-b.publishCh:
			for ch := range clients {
				select {
				case ch <- r:
				default:
					// A reload is already queued for this client.
				}
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client and returns its channel.
func (b *Broker) Subscribe() chan Reload {
	ch := make(chan Reload, 1)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan Reload) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of registered clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish delivers r to every registered client. Clients that already have
// a reload pending do not get a second one.
func (b *Broker) Publish(r Reload) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- r:
	case <-b.stopped:
	}
}
