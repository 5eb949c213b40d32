package service

import (
	"context"

	"michaelyusak/go-depth-relay.git/entity"
)

type Relay interface {
	Register(channel string, ch chan []byte)
	Unregister(channel string)
	Broadcast(eventTime int64)
}

type Depth interface {
	Summary(ctx context.Context) (entity.DepthSummary, error)
}
