package service

import (
	"encoding/json"
	"testing"

	"michaelyusak/go-depth-relay.git/book"
	"michaelyusak/go-depth-relay.git/entity"
)

func newTestBook(t *testing.T) *book.Book {
	t.Helper()

	b := book.New(10)
	b.ApplyBatch([]entity.Delta{
		{Side: entity.SideBid, Price: 100.5, Qty: 2.0},
		{Side: entity.SideAsk, Price: 101.0, Qty: 1.5},
	})

	return b
}

func recvSnapshot(t *testing.T, ch chan []byte) entity.Snapshot {
	t.Helper()

	select {
	case data := <-ch:
		var snap entity.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("failed to decode snapshot: %v", err)
		}
		return snap
	default:
		t.Fatalf("expected a snapshot to be delivered")
		return entity.Snapshot{}
	}
}

func TestBroadcastDeliversSnapshot(t *testing.T) {
	r := NewRelay(newTestBook(t))

	ch := make(chan []byte, 1)
	r.Register("sub:a", ch)

	r.Broadcast(42)

	snap := recvSnapshot(t, ch)
	if snap.EventTime != 42 {
		t.Fatalf("expected event time 42, got %d", snap.EventTime)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 100.5 || snap.Bids[0].Qty != 2.0 {
		t.Fatalf("unexpected bids: %v", snap.Bids)
	}
	if len(snap.Asks) != 1 || snap.Asks[0].Price != 101.0 || snap.Asks[0].Qty != 1.5 {
		t.Fatalf("unexpected asks: %v", snap.Asks)
	}
}

func TestLateSubscriberGetsNoBacklog(t *testing.T) {
	r := NewRelay(newTestBook(t))

	early := make(chan []byte, 8)
	r.Register("sub:early", early)

	r.Broadcast(1)
	r.Broadcast(2)
	r.Broadcast(3)

	late := make(chan []byte, 8)
	r.Register("sub:late", late)

	if len(late) != 0 {
		t.Fatalf("late subscriber received a backlog of %d messages", len(late))
	}

	r.Broadcast(4)

	if len(early) != 4 {
		t.Fatalf("early subscriber expected 4 messages, got %d", len(early))
	}
	if len(late) != 1 {
		t.Fatalf("late subscriber expected exactly 1 message, got %d", len(late))
	}

	snap := recvSnapshot(t, late)
	if snap.EventTime != 4 {
		t.Fatalf("late subscriber expected event time 4, got %d", snap.EventTime)
	}
}

func TestSlowSubscriberDroppedOthersUnaffected(t *testing.T) {
	r := NewRelay(newTestBook(t))

	slow := make(chan []byte) // unbuffered and never drained
	healthy := make(chan []byte, 8)

	r.Register("sub:slow", slow)
	r.Register("sub:healthy", healthy)

	r.Broadcast(1)

	if len(healthy) != 1 {
		t.Fatalf("healthy subscriber expected 1 message, got %d", len(healthy))
	}

	// the slow subscriber's channel must have been closed by the relay
	select {
	case _, ok := <-slow:
		if ok {
			t.Fatalf("expected slow subscriber channel to be closed")
		}
	default:
		t.Fatalf("expected slow subscriber channel to be closed")
	}

	r.Broadcast(2)

	if len(healthy) != 2 {
		t.Fatalf("healthy subscriber expected 2 messages, got %d", len(healthy))
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	r := NewRelay(newTestBook(t))

	a := make(chan []byte, 8)
	b := make(chan []byte, 8)

	r.Register("sub:a", a)
	r.Register("sub:b", b)

	r.Broadcast(1)
	r.Unregister("sub:a")
	r.Broadcast(2)

	if len(a) != 1 {
		t.Fatalf("unregistered subscriber expected 1 message, got %d", len(a))
	}
	if len(b) != 2 {
		t.Fatalf("remaining subscriber expected 2 messages, got %d", len(b))
	}

	// unregistering twice is harmless
	r.Unregister("sub:a")
}

func TestBroadcastPayloadFormat(t *testing.T) {
	r := NewRelay(newTestBook(t))

	ch := make(chan []byte, 1)
	r.Register("sub:a", ch)

	r.Broadcast(7)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(<-ch, &raw); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	for _, field := range []string{"eventTime", "serverTime", "bids", "asks"} {
		if _, ok := raw[field]; !ok {
			t.Fatalf("payload missing field %q", field)
		}
	}

	var bids [][]float64
	if err := json.Unmarshal(raw["bids"], &bids); err != nil {
		t.Fatalf("bids are not [price, qty] pairs: %v", err)
	}
	if len(bids) != 1 || len(bids[0]) != 2 || bids[0][0] != 100.5 || bids[0][1] != 2.0 {
		t.Fatalf("unexpected bids payload: %v", bids)
	}
}
