// Command worker manages the classifier process and lists its results.
//
//	worker [-config config.yaml] start [-symbol S] [-interval I] [-limit N]
//	worker stop
//	worker status
//	worker signals [-n 10]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"lorentzian-trading-bot/internal/bootstrap"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/store"
	"lorentzian-trading-bot/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: worker [-config path] start|stop|status|signals [flags]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := bootstrap.Init(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer bootstrap.Shutdown(context.Background())

	ctx := context.Background()
	mgr, err := bootstrap.NewWorkerManager(cfg)
	if err != nil {
		fail(ctx, err)
	}

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "start":
		err = start(ctx, cfg, mgr, args)
	case "stop":
		var res worker.StopResult
		if res, err = mgr.Stop(ctx); err == nil {
			printJSON(res)
		}
	case "status":
		printJSON(mgr.Status(ctx))
	case "signals":
		err = listSignals(ctx, cfg, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fail(ctx, err)
	}
}

func start(ctx context.Context, cfg *store.Config, mgr *worker.Manager, args []string) error {
	// Defaults come from the settings store so the worker follows the bot.
	st, err := bootstrap.OpenSettings(ctx, cfg)
	if err != nil {
		return err
	}
	s := st.Snapshot(ctx)
	_ = st.Close()

	fs := flag.NewFlagSet("start", flag.ExitOnError)
	symbol := fs.String("symbol", s.Symbol, "trading symbol")
	interval := fs.String("interval", s.Interval, "candle interval")
	limit := fs.Int("limit", s.Limit, "candle history length")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := mgr.Start(ctx, *symbol, *interval, *limit)
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func listSignals(ctx context.Context, cfg *store.Config, args []string) error {
	fs := flag.NewFlagSet("signals", flag.ExitOnError)
	n := fs.Int("n", 10, "number of rows, newest first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r := bootstrap.NewReader(cfg)
	defer r.Close()
	rows, err := r.Recent(ctx, *n)
	if err != nil {
		return err
	}
	printJSON(rows)
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(ctx context.Context, err error) {
	logger.ErrorWithErr(ctx, "worker command failed", err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	bootstrap.Shutdown(ctx)
	os.Exit(1)
}
