package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lorentzian-trading-bot/internal/bootstrap"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/venue"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := bootstrap.Init(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		var ce *venue.ConfigError
		if errors.As(err, &ce) {
			logger.ErrorWithErr(ctx, "Invalid venue configuration", err)
		} else {
			logger.ErrorWithErr(ctx, "Bot exited with error", err)
		}
		bootstrap.Shutdown(context.Background())
		os.Exit(1)
	}
	bootstrap.Shutdown(context.Background())
}
