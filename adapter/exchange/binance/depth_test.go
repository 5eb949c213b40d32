package binance

import (
	"testing"

	"michaelyusak/go-depth-relay.git/book"
	"michaelyusak/go-depth-relay.git/config"
	"michaelyusak/go-depth-relay.git/entity"
	binanceEntity "michaelyusak/go-depth-relay.git/entity/binance"
)

type fakeRelay struct {
	eventTimes []int64
}

func (f *fakeRelay) Register(channel string, ch chan []byte) {}
func (f *fakeRelay) Unregister(channel string)               {}
func (f *fakeRelay) Broadcast(eventTime int64) {
	f.eventTimes = append(f.eventTimes, eventTime)
}

func newTestClient(t *testing.T) (*binance, *book.Book, *fakeRelay) {
	t.Helper()

	b := book.New(10)
	relay := &fakeRelay{}
	client := NewClient(config.BinanceConfig{Symbol: "BTCUSDT"}, b, relay)

	return client, b, relay
}

func TestProcessDepthEvent(t *testing.T) {
	client, b, relay := newTestClient(t)

	err := client.processDepthEvent(binanceEntity.BinanceDepthEvent{
		EventTime: 1700000000000,
		Bids:      [][]string{{"100.5", "2.0"}},
		Asks:      [][]string{{"101.0", "1.5"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := b.Snapshot(0)
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 100.5 || snap.Bids[0].Qty != 2.0 {
		t.Fatalf("unexpected bids: %v", snap.Bids)
	}
	if len(snap.Asks) != 1 || snap.Asks[0].Price != 101.0 || snap.Asks[0].Qty != 1.5 {
		t.Fatalf("unexpected asks: %v", snap.Asks)
	}

	if len(relay.eventTimes) != 1 || relay.eventTimes[0] != 1700000000000 {
		t.Fatalf("expected one broadcast with the event time, got %v", relay.eventTimes)
	}
}

func TestProcessDepthEventRemovesLevel(t *testing.T) {
	client, b, _ := newTestClient(t)

	err := client.processDepthEvent(binanceEntity.BinanceDepthEvent{
		EventTime: 1,
		Bids:      [][]string{{"100.5", "2.0"}},
		Asks:      [][]string{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.processDepthEvent(binanceEntity.BinanceDepthEvent{
		EventTime: 2,
		Bids:      [][]string{{"100.5", "0"}},
		Asks:      [][]string{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := b.Snapshot(0)
	if len(snap.Bids) != 0 {
		t.Fatalf("expected bids to be empty, got %v", snap.Bids)
	}
}

// A malformed level must fail the whole message before the book is touched.
func TestProcessDepthEventMalformedLeavesBookIntact(t *testing.T) {
	client, b, relay := newTestClient(t)

	err := client.processDepthEvent(binanceEntity.BinanceDepthEvent{
		EventTime: 1,
		Bids:      [][]string{{"100.5", "2.0"}},
		Asks:      [][]string{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.processDepthEvent(binanceEntity.BinanceDepthEvent{
		EventTime: 2,
		Bids:      [][]string{{"100.5", "0"}, {"not-a-price", "1.0"}},
		Asks:      [][]string{},
	})
	if err == nil {
		t.Fatalf("expected an error for the malformed level")
	}

	err = client.processDepthEvent(binanceEntity.BinanceDepthEvent{
		EventTime: 3,
		Bids:      [][]string{{"99.0", "NaN"}},
		Asks:      [][]string{},
	})
	if err == nil {
		t.Fatalf("expected an error for the non-finite level")
	}

	snap := b.Snapshot(0)
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 100.5 {
		t.Fatalf("book must keep its pre-event state, got %v", snap.Bids)
	}

	if len(relay.eventTimes) != 1 {
		t.Fatalf("a failed message must not trigger a broadcast, got %v", relay.eventTimes)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   []string
		wantErr bool
		price   float64
		qty     float64
	}{
		{name: "ok", level: []string{"100.5", "2.0"}, price: 100.5, qty: 2.0},
		{name: "short", level: []string{"100.5"}, wantErr: true},
		{name: "bad price", level: []string{"x", "2.0"}, wantErr: true},
		{name: "bad qty", level: []string{"100.5", "x"}, wantErr: true},
		{name: "nan qty", level: []string{"100.5", "NaN"}, wantErr: true},
		{name: "inf qty", level: []string{"100.5", "Inf"}, wantErr: true},
		{name: "nan price", level: []string{"NaN", "2.0"}, wantErr: true},
		{name: "inf price", level: []string{"-Inf", "2.0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, qty, err := parseLevel(tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if price != tt.price || qty != tt.qty {
				t.Fatalf("expected (%v, %v), got (%v, %v)", tt.price, tt.qty, price, qty)
			}
		})
	}
}

func TestParseLevels(t *testing.T) {
	levels, err := parseLevels([][]string{{"100.5", "2.0"}, {"100.0", "1.0"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []entity.PriceLevel{{Price: 100.5, Qty: 2.0}, {Price: 100.0, Qty: 1.0}}
	if len(levels) != len(want) {
		t.Fatalf("expected %d levels, got %d", len(want), len(levels))
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("level %d: expected %v, got %v", i, want[i], levels[i])
		}
	}
}
