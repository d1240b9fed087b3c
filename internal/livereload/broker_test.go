package livereload

import (
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(Reload{BuildID: "one"})

	for _, ch := range []chan Reload{a, c} {
		select {
		case r := <-ch:
			if r.BuildID != "one" {
				t.Errorf("BuildID = %q", r.BuildID)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for reload")
		}
	}
}

func TestPublishFoldsPendingReloads(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()

	b.Publish(Reload{BuildID: "one"})
	b.Publish(Reload{BuildID: "two"})
	// Round trip through the loop so both publishes are processed.
	_ = b.ClientCount()

	got := 0
loop:
	for {
		select {
		case <-ch:
			got++
		default:
			break loop
		}
	}
	if got != 1 {
		t.Errorf("pending reloads = %d, want 1", got)
	}
}

func TestCloseClosesClients(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}

	// Calls after close must not block.
	b.Close()
	b.Publish(Reload{})
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Error("expected 0 clients after close")
	}
	if _, ok := <-b.Subscribe(); ok {
		t.Error("subscribe after close should return a closed channel")
	}
}
