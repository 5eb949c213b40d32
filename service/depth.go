package service

import (
	"context"
	"net/http"
	"time"

	"michaelyusak/go-depth-relay.git/book"
	"michaelyusak/go-depth-relay.git/entity"

	"github.com/michaelyusak/go-helper/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type depth struct {
	symbol string
	book   *book.Book
}

func NewDepth(symbol string, orderBook *book.Book) *depth {
	return &depth{
		symbol: symbol,
		book:   orderBook,
	}
}

func (s *depth) Summary(ctx context.Context) (entity.DepthSummary, error) {
	bestBid, bidOk := s.book.Best(entity.SideBid)
	bestAsk, askOk := s.book.Best(entity.SideAsk)

	if !bidOk || !askOk {
		logrus.Warn("[service][depth][Summary] order book not ready")

		return entity.DepthSummary{}, apperror.BadRequestError(apperror.AppErrorOpt{
			Code:    http.StatusServiceUnavailable,
			Message: "[service][depth][Summary] order book not ready",
		})
	}

	bidPrice := decimal.NewFromFloat(bestBid.Price)
	askPrice := decimal.NewFromFloat(bestAsk.Price)

	spread := askPrice.Sub(bidPrice)
	mid := askPrice.Add(bidPrice).Div(decimal.NewFromInt(2))

	return entity.DepthSummary{
		Symbol:     s.symbol,
		BestBid:    bestBid,
		BestAsk:    bestAsk,
		Spread:     spread.String(),
		Mid:        mid.String(),
		ServerTime: time.Now().UnixMilli(),
	}, nil
}
