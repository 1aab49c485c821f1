// Package main is the bot entry point.
// Loads the configuration, initializes the application and runs it.
// Supports graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/app"
	"github.com/master-pd/marpd/internal/config"
)

func main() {
	setupLogging()

	log.Info("=== Bot starting ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}

	application.Scheduler.Start()
	defer application.Scheduler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go application.Bot.Start(ctx)

	log.Info("=== Bot is ready ===")

	sig := <-quit
	log.Infof("Received %s, shutting down...", sig)

	cancel()

	log.Info("=== Bot stopped ===")
}

// setupLogging sets the log format before the config is available.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
