// Package metrics exposes the bot's Prometheus series:
//
//	bot_cycles_total{outcome}         trading cycles by outcome
//	bot_orders_total{side,result}     bracket legs by side and accepted|rejected
//	bot_rollbacks_total               brackets cancelled after a failed leg
//	bot_venue_calls_total{venue,op,result}
//	bot_worker_running                1 while the classifier worker is alive
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lorentzian-trading-bot/internal/logger"
)

var (
	mtxCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Trading cycles by outcome",
		},
		[]string{"outcome"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Bracket legs submitted",
		},
		[]string{"side", "result"},
	)

	mtxRollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_rollbacks_total",
			Help: "Brackets cancelled after a failed leg",
		},
	)

	mtxVenueCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_venue_calls_total",
			Help: "Venue API calls by operation and result",
		},
		[]string{"venue", "op", "result"},
	)

	mtxWorkerRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_worker_running",
			Help: "1 while the classification worker is alive",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxCycles, mtxOrders, mtxRollbacks)
	prometheus.MustRegister(mtxVenueCalls, mtxWorkerRunning)
}

func IncCycle(outcome string) { mtxCycles.WithLabelValues(outcome).Inc() }
func IncRollback()            { mtxRollbacks.Inc() }

func IncOrder(side string, accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	mtxOrders.WithLabelValues(side, result).Inc()
}

func VenueCall(venue, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mtxVenueCalls.WithLabelValues(venue, op, result).Inc()
}

func SetWorkerRunning(running bool) {
	if running {
		mtxWorkerRunning.Set(1)
		return
	}
	mtxWorkerRunning.Set(0)
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr is a no-op.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "Serving metrics", "addr", addr, "path", "/metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
