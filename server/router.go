package server

import (
	"context"
	"net/http"
	"time"

	"michaelyusak/go-depth-relay.git/adapter/exchange/binance"
	"michaelyusak/go-depth-relay.git/book"
	"michaelyusak/go-depth-relay.git/config"
	"michaelyusak/go-depth-relay.git/handler"
	"michaelyusak/go-depth-relay.git/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	hHandler "github.com/michaelyusak/go-helper/handler"
	hMiddleware "github.com/michaelyusak/go-helper/middleware"
	"github.com/sirupsen/logrus"
)

type routerOpts struct {
	handler struct {
		common *hHandler.Common
		stream *handler.Stream
		depth  *handler.Depth
	}
}

func newRouter(config *config.AppConfig, listenCtx context.Context) *gin.Engine {
	orderBook := book.New(config.Relay.Depth)

	relayService := service.NewRelay(orderBook)
	depthService := service.NewDepth(config.Exchange.Binance.Symbol, orderBook)

	binanceClient := binance.NewClient(
		config.Exchange.Binance,
		orderBook,
		relayService,
	)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	commonHandler := hHandler.NewCommon(&APP_HEALTHY)
	streamHandler := handler.NewStream(
		relayService,
		upgrader,
		config.Relay.SubscriberBuffer,
		time.Duration(config.Relay.PingInterval),
		time.Duration(config.Relay.PongTimeout),
	)
	depthHandler := handler.NewDepth(depthService)

	go binanceClient.ListenDepth(listenCtx)

	return createRouter(routerOpts{
		handler: struct {
			common *hHandler.Common
			stream *handler.Stream
			depth  *handler.Depth
		}{
			common: commonHandler,
			stream: streamHandler,
			depth:  depthHandler,
		},
	},
		config.Cors.AllowedOrigins,
	)
}

func createRouter(opts routerOpts, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()

	router.ContextWithFallback = true

	router.Use(
		hMiddleware.Logger(logrus.New()),
		hMiddleware.RequestIdHandlerMiddleware,
		hMiddleware.ErrorHandlerMiddleware,
		gin.Recovery(),
	)

	corsRouting(router, corsConfig, allowedOrigins)
	commonRouting(router, opts.handler.common)
	depthRouting(router, opts.handler.stream, opts.handler.depth)

	return router
}

func corsRouting(router *gin.Engine, corsConfig cors.Config, allowedOrigins []string) {
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"POST", "GET", "PUT", "PATCH", "DELETE"}
	corsConfig.AllowHeaders = []string{"Origin", "Authorization", "Content-Type", "Accept", "User-Agent", "Cache-Control", "Device-Info", "X-Device-Id"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))
}

func commonRouting(router *gin.Engine, handler *hHandler.Common) {
	router.GET("/health", handler.Health)
	router.NoRoute(handler.NoRoute)
}

func depthRouting(router *gin.Engine, stream *handler.Stream, depth *handler.Depth) {
	router.GET("/v1/depth/stream", stream.Subscribe)
	router.GET("/v1/depth/summary", depth.Summary)
}
