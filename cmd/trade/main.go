// Command trade opens one bracket by hand, bypassing the signal path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lorentzian-trading-bot/internal/bootstrap"
	"lorentzian-trading-bot/internal/engine"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	sideFlag := flag.String("side", "", "buy or sell (required)")
	symbol := flag.String("symbol", "", "trading symbol (defaults to the configured symbol)")
	entry := flag.Float64("entry", 0, "suggested entry price (optional)")
	flag.Parse()

	side, err := types.ParseSide(*sideFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := bootstrap.Init(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.CycleTimeout())
	defer cancel()

	code := 0
	defer func() {
		bootstrap.Shutdown(context.Background())
		os.Exit(code)
	}()

	core, err := bootstrap.NewCore(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize trading core", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
		return
	}
	defer core.Close()

	s := core.Settings.Snapshot(ctx)
	req := engine.TradeRequest{Symbol: s.Symbol, Side: side, Risk: s.Risk}
	if *symbol != "" {
		req.Symbol = *symbol
	}
	if *entry > 0 {
		req.DesiredEntry = entry
	}

	out, err := core.Engine.ExecuteTrade(ctx, req)
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
	if err != nil {
		logger.ErrorWithErr(ctx, "Manual trade failed", err, "symbol", req.Symbol, "side", side)
		code = 1
	}
}
