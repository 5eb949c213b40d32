package binance

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"michaelyusak/go-depth-relay.git/entity"
	binanceEntity "michaelyusak/go-depth-relay.git/entity/binance"

	"github.com/sirupsen/logrus"
)

// applyWarnThreshold mirrors the upstream 100µs latency budget per tick.
const applyWarnThreshold = 100 * time.Microsecond

// processDepthEvent converts one decoded event into a delta batch and
// applies it as a single unit. Deltas are fully built before the book is
// touched, so a malformed level never leaves a half-applied message behind.
func (b *binance) processDepthEvent(msg binanceEntity.BinanceDepthEvent) error {
	deltas := make([]entity.Delta, 0, len(msg.Bids)+len(msg.Asks))

	deltas, err := appendDeltas(deltas, msg.Bids, entity.SideBid)
	if err != nil {
		return fmt.Errorf("[adapter][exchange][binance][processDepthEvent] bids: %w", err)
	}

	deltas, err = appendDeltas(deltas, msg.Asks, entity.SideAsk)
	if err != nil {
		return fmt.Errorf("[adapter][exchange][binance][processDepthEvent] asks: %w", err)
	}

	start := time.Now()
	b.book.ApplyBatch(deltas)
	elapsed := time.Since(start)

	if elapsed > applyWarnThreshold {
		logrus.
			WithField("duration_us", elapsed.Microseconds()).
			WithField("deltas", len(deltas)).
			Warn("[adapter][exchange][binance][processDepthEvent] high latency tick")
	}

	b.relay.Broadcast(msg.EventTime)

	return nil
}

func appendDeltas(deltas []entity.Delta, raw [][]string, side entity.Side) ([]entity.Delta, error) {
	for _, level := range raw {
		price, qty, err := parseLevel(level)
		if err != nil {
			return nil, err
		}

		deltas = append(deltas, entity.Delta{
			Side:  side,
			Price: price,
			Qty:   qty,
		})
	}

	return deltas, nil
}

func parseLevel(level []string) (price, qty float64, err error) {
	if len(level) < 2 {
		return 0, 0, fmt.Errorf("[adapter][exchange][binance][parseLevel] level has %d fields", len(level))
	}

	price, err = strconv.ParseFloat(level[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("[adapter][exchange][binance][parseLevel][strconv.ParseFloat] price %q: %w", level[0], err)
	}

	qty, err = strconv.ParseFloat(level[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("[adapter][exchange][binance][parseLevel][strconv.ParseFloat] qty %q: %w", level[1], err)
	}

	// ParseFloat accepts "NaN" and "Inf", which are not quotable values
	if math.IsNaN(price) || math.IsInf(price, 0) || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0, 0, fmt.Errorf("[adapter][exchange][binance][parseLevel] non-finite level [%q, %q]", level[0], level[1])
	}

	return price, qty, nil
}

func parseLevels(raw [][]string) ([]entity.PriceLevel, error) {
	levels := make([]entity.PriceLevel, 0, len(raw))

	for _, level := range raw {
		price, qty, err := parseLevel(level)
		if err != nil {
			return nil, err
		}

		levels = append(levels, entity.PriceLevel{Price: price, Qty: qty})
	}

	return levels, nil
}

// resync discards the stale incremental book and seeds it from a REST depth
// snapshot. Stream events up to the snapshot's lastUpdateId are dropped by
// the caller afterwards.
func (b *binance) resync(ctx context.Context) error {
	var snapshot binanceEntity.BinanceDepthSnapshot

	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", strings.ToUpper(b.symbol)).
		SetQueryParam("limit", strconv.Itoa(b.snapshotDepth)).
		SetResult(&snapshot).
		Get(b.baseUrl + "/api/v3/depth")
	if err != nil {
		return fmt.Errorf("[adapter][exchange][binance][resync][client.R().Get] Error: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("[adapter][exchange][binance][resync][client.R().Get] unexpected status: %s", resp.Status())
	}

	bids, err := parseLevels(snapshot.Bids)
	if err != nil {
		return fmt.Errorf("[adapter][exchange][binance][resync] bids: %w", err)
	}

	asks, err := parseLevels(snapshot.Asks)
	if err != nil {
		return fmt.Errorf("[adapter][exchange][binance][resync] asks: %w", err)
	}

	b.book.Reset(bids, asks)
	b.lastUpdateId = snapshot.LastUpdateId

	logrus.
		WithField("last_update_id", snapshot.LastUpdateId).
		WithField("bids", len(bids)).
		WithField("asks", len(asks)).
		Info("[adapter][exchange][binance][resync] order book resynchronized")

	return nil
}
