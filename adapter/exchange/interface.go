package exchange

import "context"

type Exchange interface {
	ListenDepth(ctx context.Context) error
}
