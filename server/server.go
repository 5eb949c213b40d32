package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"michaelyusak/go-depth-relay.git/config"

	"github.com/sirupsen/logrus"
)

var APP_HEALTHY = true

func Init() {
	conf, err := config.Init()
	if err != nil {
		logrus.Panicf("Failed to init config: %v", err)
	}

	setLog(conf.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := newRouter(&conf, ctx)

	srv := &http.Server{
		Addr:    ":" + conf.Service.Port,
		Handler: router,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Panicf("[server][Init][srv.ListenAndServe] error: %v", err)
		}
	}()

	logrus.
		WithField("port", conf.Service.Port).
		WithField("symbol", conf.Exchange.Binance.Symbol).
		Info("[server][Init] depth relay started")

	<-ctx.Done()

	APP_HEALTHY = false

	logrus.Info("[server][Init] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(conf.Service.GracefulPeriod))
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("[server][Init][srv.Shutdown] error: %v", err)
	}
}

func setLog(conf config.LogConfig) {
	level, err := logrus.ParseLevel(conf.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.SetFormatter(&logrus.JSONFormatter{})

	if conf.Dir == "" {
		return
	}

	logFile, err := os.OpenFile(filepath.Join(conf.Dir, "depth-relay.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.Warnf("Failed to open log file, logging to stdout only: %v", err)
		return
	}

	logrus.SetOutput(io.MultiWriter(os.Stdout, logFile))
}
