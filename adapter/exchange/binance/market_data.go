package binance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	binanceEntity "michaelyusak/go-depth-relay.git/entity/binance"
)

// minStreamingPeriod is how long a connection must survive before the
// reconnect backoff is reset to its initial delay.
const minStreamingPeriod = time.Minute

// ListenDepth supervises the upstream connection. Every attempt fetches a
// fresh REST baseline before applying deltas; a dropped connection or a
// sequence gap triggers a reconnect with exponential backoff. The loop only
// exits when ctx is cancelled.
func (b *binance) ListenDepth(ctx context.Context) error {
	delay := b.initialDelay

	for {
		b.state = stateConnecting
		started := time.Now()

		err := b.streamDepth(ctx)

		if ctx.Err() != nil {
			logrus.Info("[adapter][exchange][binance][ListenDepth] depth listener stopped")
			return nil
		}

		b.state = stateReconnecting

		if time.Since(started) > minStreamingPeriod {
			delay = b.initialDelay
		}

		logrus.
			WithError(err).
			WithField("state", string(b.state)).
			WithField("retry_in", delay.String()).
			Error("[adapter][exchange][binance][ListenDepth] RESTARTING binance depth listener")

		select {
		case <-ctx.Done():
			logrus.Info("[adapter][exchange][binance][ListenDepth] depth listener stopped")
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > b.maxDelay {
			delay = b.maxDelay
			b.state = stateFailed
		}
	}
}

func (b *binance) streamDepth(ctx context.Context) error {
	streamPath := b.wsPath + "/" + strings.ToLower(b.symbol) + "@depth"
	u := url.URL{Scheme: b.wsScheme, Host: b.wsHost, Path: streamPath}

	c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("[adapter][exchange][binance][streamDepth][websocket.DefaultDialer.DialContext] Error: %w", err)
	}
	defer c.Close()

	// caps the reassembly buffer; an oversized message is a protocol
	// error that errors the read and drops the connection
	c.SetReadLimit(b.maxMessageSize)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-connCtx.Done()
		c.Close()
	}()

	err = b.resync(ctx)
	if err != nil {
		return err
	}

	b.state = stateStreaming

	logrus.
		WithField("symbol", b.symbol).
		Info("[adapter][exchange][binance][streamDepth] depth stream fully initiated")

	for {
		data, err := b.readMessage(c)
		if err != nil {
			return err
		}

		var msg binanceEntity.BinanceDepthEvent
		err = json.Unmarshal(data, &msg)
		if err != nil {
			logrus.
				WithError(err).
				WithField("raw", string(data)).
				Warn("[adapter][exchange][binance][streamDepth][json.Unmarshal]")
			continue
		}

		if msg.Bids == nil || msg.Asks == nil || msg.EventTime == 0 {
			// no actionable data
			continue
		}

		if msg.FinalUpdateId <= b.lastUpdateId {
			// stale event from before the baseline snapshot
			continue
		}

		if b.lastUpdateId != 0 && msg.FirstUpdateId > b.lastUpdateId+1 {
			return fmt.Errorf("[adapter][exchange][binance][streamDepth] sequence gap: book at %d, event starts at %d", b.lastUpdateId, msg.FirstUpdateId)
		}

		err = b.processDepthEvent(msg)
		if err != nil {
			logrus.
				WithError(err).
				WithField("raw", string(data)).
				Warn("[adapter][exchange][binance][streamDepth][processDepthEvent]")
			continue
		}

		b.lastUpdateId = msg.FinalUpdateId
	}
}

// readMessage reassembles one complete text message. NextReader concatenates
// continuation frames until the final fragment, bounded by SetReadLimit.
func (b *binance) readMessage(c *websocket.Conn) ([]byte, error) {
	for {
		messageType, r, err := c.NextReader()
		if err != nil {
			return nil, fmt.Errorf("[adapter][exchange][binance][readMessage][c.NextReader] Error: %w", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var buf bytes.Buffer
		_, err = buf.ReadFrom(r)
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return nil, fmt.Errorf("[adapter][exchange][binance][readMessage] message exceeds %d bytes: %w", b.maxMessageSize, err)
			}
			return nil, fmt.Errorf("[adapter][exchange][binance][readMessage][buf.ReadFrom] Error: %w", err)
		}

		return buf.Bytes(), nil
	}
}
