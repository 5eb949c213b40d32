package service

import (
	"encoding/json"
	"sync"

	"michaelyusak/go-depth-relay.git/book"

	"github.com/sirupsen/logrus"
)

// relay owns the subscriber set. It has its own lock, independent of the
// book's, so delivery never holds up delta ingestion.
type relay struct {
	book *book.Book

	subscribers map[string]chan []byte

	mu sync.Mutex
}

func NewRelay(orderBook *book.Book) *relay {
	return &relay{
		book: orderBook,

		subscribers: map[string]chan []byte{},
	}
}

func (r *relay) Register(channel string, ch chan []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers[channel] = ch

	logrus.
		WithField("channel", channel).
		Info("[service][relay][Register] subscriber registered")
}

// Unregister removes the subscriber without closing its channel. The relay
// only closes channels it drops itself in Broadcast.
func (r *relay) Unregister(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.subscribers[channel]
	if !ok {
		return
	}

	delete(r.subscribers, channel)

	logrus.
		WithField("channel", channel).
		Info("[service][relay][Unregister] subscriber removed")
}

// Broadcast takes one snapshot, serializes it once, and delivers the same
// payload to every subscriber. A subscriber whose channel is not ready is
// dropped on the spot; the rest of the pass is unaffected.
func (r *relay) Broadcast(eventTime int64) {
	snapshot := r.book.Snapshot(eventTime)

	data, err := json.Marshal(snapshot)
	if err != nil {
		logrus.
			WithError(err).
			Error("[service][relay][Broadcast][json.Marshal]")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for channel, ch := range r.subscribers {
		select {
		case ch <- data:
		default:
			delete(r.subscribers, channel)
			close(ch)

			logrus.
				WithField("channel", channel).
				Warn("[service][relay][Broadcast] subscriber not draining, dropped")
		}
	}
}
