package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mccdaq/app"
	"mccdaq/config"
	"mccdaq/logger"
	"mccdaq/web/broadcast"
	"mccdaq/web/controller"
	"mccdaq/web/router"

	"golang.org/x/sync/errgroup"
)

func main() {
	config.Load()
	conf := config.GetConfig()

	logman, err := logger.NewLogger(filepath.Join(conf.LogFolder, "mccdaq.log"))

	if err != nil {
		log.Fatal(err)
	}

	svc, err := app.NewApp(conf, logman)

	if err != nil {
		logman.LogError(err, "Error creating app")
		log.Fatal(err)
	}

	hub := broadcast.NewHub(svc.Status, logman)
	svc.Subscribe(hub.Publish)

	ctrl := controller.NewController(svc, logman)
	r := router.InitRouter(ctrl, hub, logman)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", conf.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.Run(ctx)
	})

	g.Go(func() error {
		logman.LogInfo("Starting server", "port", conf.Port)

		var err error
		if conf.SSLConfig.CertFile != "" && conf.SSLConfig.KeyFile != "" {
			err = srv.ListenAndServeTLS(conf.SSLConfig.CertFile, conf.SSLConfig.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		logman.LogInfo("Shutting down")

		if _, err := svc.StopRecording(); err != nil {
			logman.LogError(err, "Error closing recording on shutdown")
		}
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logman.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}
