package book

import (
	"math"
	"sort"
	"sync"
	"time"

	"michaelyusak/go-depth-relay.git/entity"
)

const defaultDepth = 10

// side keeps one half of the book. prices is sorted best first at all
// times, descending for bids and ascending for asks, so snapshot
// extraction is a plain prefix copy.
type side struct {
	levels map[float64]float64
	prices []float64
	bid    bool
}

func newSide(bid bool) side {
	return side{
		levels: map[float64]float64{},
		bid:    bid,
	}
}

// rank returns the slot price occupies, or would occupy, in best-first order.
func (s *side) rank(price float64) int {
	if s.bid {
		return sort.Search(len(s.prices), func(i int) bool {
			return s.prices[i] <= price
		})
	}

	return sort.Search(len(s.prices), func(i int) bool {
		return s.prices[i] >= price
	})
}

func (s *side) apply(price, qty float64) {
	i := s.rank(price)
	_, exists := s.levels[price]

	if qty == 0 {
		if !exists {
			// level already flat, expected exchange behavior
			return
		}

		delete(s.levels, price)
		s.prices = append(s.prices[:i], s.prices[i+1:]...)

		return
	}

	if !exists {
		s.prices = append(s.prices, 0)
		copy(s.prices[i+1:], s.prices[i:])
		s.prices[i] = price
	}

	s.levels[price] = qty
}

func (s *side) top(n int) []entity.PriceLevel {
	if n > len(s.prices) {
		n = len(s.prices)
	}

	out := make([]entity.PriceLevel, 0, n)
	for _, price := range s.prices[:n] {
		out = append(out, entity.PriceLevel{Price: price, Qty: s.levels[price]})
	}

	return out
}

// Book is the authoritative in-memory view of one instrument's depth.
// ApplyBatch holds the write lock for the whole batch so no snapshot ever
// observes a partially applied message.
type Book struct {
	bids  side
	asks  side
	depth int

	mu sync.RWMutex
}

func New(depth int) *Book {
	if depth <= 0 {
		depth = defaultDepth
	}

	return &Book{
		bids:  newSide(true),
		asks:  newSide(false),
		depth: depth,
	}
}

func (b *Book) ApplyLevel(price, qty float64, sd entity.Side) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.applyLevel(price, qty, sd)
}

func (b *Book) ApplyBatch(deltas []entity.Delta) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, delta := range deltas {
		b.applyLevel(delta.Price, delta.Qty, delta.Side)
	}
}

func (b *Book) applyLevel(price, qty float64, sd entity.Side) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return
	}

	// a non-finite quantity would poison every later snapshot marshal
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
		return
	}

	switch sd {
	case entity.SideBid:
		b.bids.apply(price, qty)
	case entity.SideAsk:
		b.asks.apply(price, qty)
	}
}

// Reset discards the current state and seeds both sides from a baseline
// snapshot. Used after every upstream (re)connect, since incremental deltas
// are meaningless against a stale book.
func (b *Book) Reset(bids, asks []entity.PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = newSide(true)
	b.asks = newSide(false)

	for _, level := range bids {
		b.applyLevel(level.Price, level.Qty, entity.SideBid)
	}

	for _, level := range asks {
		b.applyLevel(level.Price, level.Qty, entity.SideAsk)
	}
}

// Snapshot copies the top levels of both sides under the read lock and
// stamps them with the triggering event time and the wall clock.
func (b *Book) Snapshot(eventTime int64) entity.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return entity.Snapshot{
		EventTime:  eventTime,
		ServerTime: time.Now().UnixMilli(),
		Bids:       b.bids.top(b.depth),
		Asks:       b.asks.top(b.depth),
	}
}

func (b *Book) Best(sd entity.Side) (entity.PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := &b.asks
	if sd == entity.SideBid {
		s = &b.bids
	}

	if len(s.prices) == 0 {
		return entity.PriceLevel{}, false
	}

	best := s.prices[0]

	return entity.PriceLevel{Price: best, Qty: s.levels[best]}, true
}
