package entity

import (
	"encoding/json"
	"fmt"
)

type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// PriceLevel is one resting level of the book. A quantity of zero on the
// wire means the level no longer exists.
type PriceLevel struct {
	Price float64
	Qty   float64
}

// MarshalJSON encodes the level as a [price, qty] pair, the format the
// upstream feed and the subscriber payload both use.
func (l PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{l.Price, l.Qty})
}

func (l *PriceLevel) UnmarshalJSON(data []byte) error {
	var pair [2]float64

	err := json.Unmarshal(data, &pair)
	if err != nil {
		return fmt.Errorf("[entity][PriceLevel][UnmarshalJSON] error: %w", err)
	}

	l.Price = pair[0]
	l.Qty = pair[1]

	return nil
}

// Delta is one incremental change to a single price level.
type Delta struct {
	Side  Side
	Price float64
	Qty   float64
}

// Snapshot is an immutable copy of the top levels of both sides. It is
// produced fresh on every broadcast and never mutated afterwards.
type Snapshot struct {
	EventTime  int64        `json:"eventTime"`
	ServerTime int64        `json:"serverTime"`
	Bids       []PriceLevel `json:"bids"`
	Asks       []PriceLevel `json:"asks"`
}

type DepthSummary struct {
	Symbol     string     `json:"symbol"`
	BestBid    PriceLevel `json:"best_bid"`
	BestAsk    PriceLevel `json:"best_ask"`
	Spread     string     `json:"spread"`
	Mid        string     `json:"mid"`
	ServerTime int64      `json:"server_time"`
}
