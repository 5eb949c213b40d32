package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"michaelyusak/go-depth-relay.git/common"
	"michaelyusak/go-depth-relay.git/service"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gin-gonic/gin"
)

const (
	defaultSubscriberBuffer = 8
	defaultPingInterval     = 30 * time.Second
	defaultPongTimeout      = 75 * time.Second
	writeControlTimeout     = time.Second
)

type Stream struct {
	relay    service.Relay
	upgrader websocket.Upgrader

	subscriberBuffer int
	pingInterval     time.Duration
	pongTimeout      time.Duration
}

func NewStream(
	relay service.Relay,
	upgrader websocket.Upgrader,
	subscriberBuffer int,
	pingInterval time.Duration,
	pongTimeout time.Duration,
) *Stream {
	if subscriberBuffer <= 0 {
		subscriberBuffer = defaultSubscriberBuffer
	}

	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}

	if pongTimeout <= 0 {
		pongTimeout = defaultPongTimeout
	}

	return &Stream{
		relay:    relay,
		upgrader: upgrader,

		subscriberBuffer: subscriberBuffer,
		pingInterval:     pingInterval,
		pongTimeout:      pongTimeout,
	}
}

// Subscribe upgrades the connection and streams snapshots until the peer
// goes away or the relay drops the subscriber. Nothing the peer sends after
// the handshake is consumed; the reader only detects close and pong frames.
func (h *Stream) Subscribe(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.Error(err)
		return
	}
	defer conn.Close()

	c, done := context.WithCancel(ctx.Request.Context())
	defer done()

	channel := fmt.Sprintf("sub:%s", common.CreateRandomString(20))
	dataCh := make(chan []byte, h.subscriberBuffer)

	h.relay.Register(channel, dataCh)
	defer h.relay.Unregister(channel)

	var wg sync.WaitGroup

	wg.Add(1)
	// writer
	go func() {
		defer wg.Done()

		ping := time.NewTicker(h.pingInterval)
		defer ping.Stop()

	loop:
		for {
			select {
			case <-c.Done():
				logrus.
					WithField("channel", channel).
					Warn("[handler][stream][Subscribe][Write] closing loop")
				break loop
			case <-ping.C:
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeControlTimeout))
				if err != nil {
					done()
					break loop
				}
			case data, ok := <-dataCh:
				if !ok {
					// dropped by the relay for not draining
					logrus.
						WithField("channel", channel).
						Warn("[handler][stream][Subscribe][Write] subscriber dropped by relay")
					done()
					break loop
				}

				err := conn.WriteMessage(websocket.TextMessage, data)
				if err != nil {
					if !errors.Is(err, websocket.ErrCloseSent) {
						logrus.
							WithError(err).
							WithField("channel", channel).
							Warn("[handler][stream][Subscribe][Write][conn.WriteMessage]")
					}

					done()
					break loop
				}
			}
		}
	}()

	// listener
	go func() {
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		})

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				done()
				return
			}
		}
	}()

	wg.Wait()

	logrus.
		WithField("channel", channel).
		Info("[handler][stream][Subscribe] stopping stream")

	err = common.CloseConn(conn)
	if err != nil {
		ctx.Error(err)
	}
}
