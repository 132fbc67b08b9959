package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/app"
)

// main acts as a thin adapter so process managers can keep using cmd/server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	if err := app.Run(ctx, os.Args[1:], logger); err != nil {
		logger.WithError(err).Fatal("application stopped with error")
	}
}
