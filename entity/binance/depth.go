package binance

// BinanceDepthEvent is one diff-depth message from the combined ws stream.
// Bids and Asks stay nil when the corresponding field is absent, which marks
// the message as carrying no actionable data.
type BinanceDepthEvent struct {
	EventType     string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdateId int64      `json:"U"`
	FinalUpdateId int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

// BinanceDepthSnapshot is the REST baseline used to seed the book before
// incremental deltas are applied.
type BinanceDepthSnapshot struct {
	LastUpdateId int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}
