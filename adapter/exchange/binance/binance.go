package binance

import (
	"time"

	"michaelyusak/go-depth-relay.git/book"
	"michaelyusak/go-depth-relay.git/config"
	"michaelyusak/go-depth-relay.git/service"

	"github.com/go-resty/resty/v2"
)

const (
	defaultSnapshotDepth  = 1000
	defaultMaxMessageSize = 1 << 20
	defaultInitialDelay   = time.Second
	defaultMaxDelay       = time.Minute
)

type connState string

const (
	stateConnecting   connState = "connecting"
	stateStreaming    connState = "streaming"
	stateReconnecting connState = "reconnecting"
	stateFailed       connState = "failed"
)

type binance struct {
	baseUrl  string
	wsScheme string
	wsHost   string
	wsPath   string
	symbol   string

	snapshotDepth  int
	maxMessageSize int64
	initialDelay   time.Duration
	maxDelay       time.Duration

	client *resty.Client

	book  *book.Book
	relay service.Relay

	state        connState
	lastUpdateId int64
}

func NewClient(
	conf config.BinanceConfig,
	orderBook *book.Book,
	relay service.Relay,
) *binance {
	snapshotDepth := conf.SnapshotDepth
	if snapshotDepth <= 0 {
		snapshotDepth = defaultSnapshotDepth
	}

	maxMessageSize := conf.MaxMessageSize
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxMessageSize
	}

	initialDelay := time.Duration(conf.ReconnectInitialDelay)
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}

	maxDelay := time.Duration(conf.ReconnectMaxDelay)
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	return &binance{
		baseUrl:  conf.BaseUrl,
		wsScheme: conf.WsScheme,
		wsHost:   conf.WsHost,
		wsPath:   conf.WsPath,
		symbol:   conf.Symbol,

		snapshotDepth:  snapshotDepth,
		maxMessageSize: maxMessageSize,
		initialDelay:   initialDelay,
		maxDelay:       maxDelay,

		client: resty.New(),

		book:  orderBook,
		relay: relay,

		state: stateConnecting,
	}
}
