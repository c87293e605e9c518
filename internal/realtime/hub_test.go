package realtime

import (
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestPublishReachesSubscriber(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe()
	defer sub.Close()

	h.Publish("results", map[string]int{"points": 300})

	ev := receive(t, sub)
	if ev.Channel != "results" {
		t.Errorf("expected results channel, got %q", ev.Channel)
	}
	if ev.At.IsZero() {
		t.Error("event must carry a timestamp")
	}
}

func TestChannelFiltering(t *testing.T) {
	h := NewHub()
	leaderboard := h.Subscribe("leaderboard")
	defer leaderboard.Close()
	all := h.Subscribe()
	defer all.Close()

	h.Publish("community", "post")
	h.Publish("leaderboard", "entry")

	// The filtered subscriber only sees its channel.
	ev := receive(t, leaderboard)
	if ev.Channel != "leaderboard" {
		t.Errorf("filtered subscriber got %q", ev.Channel)
	}
	select {
	case ev := <-leaderboard.C:
		t.Errorf("unexpected extra event on filtered subscription: %q", ev.Channel)
	default:
	}

	// The unfiltered subscriber sees both, in order.
	if ev := receive(t, all); ev.Channel != "community" {
		t.Errorf("expected community first, got %q", ev.Channel)
	}
	if ev := receive(t, all); ev.Channel != "leaderboard" {
		t.Errorf("expected leaderboard second, got %q", ev.Channel)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("results")

	sub.Close()
	sub.Close() // must not panic on double close

	if n := h.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", n)
	}
	if _, ok := <-sub.C; ok {
		t.Error("channel must be closed after Close")
	}

	// Publishing after close must not panic either.
	h.Publish("results", nil)
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe()
	defer sub.Close()

	// Overfill the subscription buffer without a reader; Publish must
	// drop rather than block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*2; i++ {
			h.Publish("results", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	received := 0
	for {
		select {
		case <-sub.C:
			received++
			continue
		default:
		}
		break
	}
	if received != subscriptionBuffer {
		t.Errorf("expected exactly %d buffered events, got %d", subscriptionBuffer, received)
	}
}

func TestSubscriberCount(t *testing.T) {
	h := NewHub()
	if n := h.SubscriberCount(); n != 0 {
		t.Fatalf("expected empty hub, got %d", n)
	}
	a := h.Subscribe()
	b := h.Subscribe("community")
	if n := h.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	a.Close()
	b.Close()
	if n := h.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}
