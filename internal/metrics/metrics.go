// Package metrics exposes an optional local Prometheus endpoint for scan,
// cache, worker pool, drift, and verifier activity — grounded wholesale on
// vjache-cie's cmd/cie/index.go --metrics-addr flag and promhttp.Handler
// startup (the teacher itself carries no metrics of its own).
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibecheck_scans_total",
		Help: "Total number of scan runs completed.",
	})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibecheck_findings_total",
		Help: "Findings emitted, by severity.",
	}, []string{"severity"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vibecheck_scan_duration_seconds",
		Help:    "Wall-clock duration of a full scan run.",
		Buckets: prometheus.DefBuckets,
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibecheck_cache_total",
		Help: "Cache probes, by level and outcome.",
	}, []string{"level", "outcome"})

	WorkerPoolInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vibecheck_workerpool_in_flight",
		Help: "Currently executing worker pool tasks.",
	})

	DriftWallClockSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vibecheck_drift_wallclock_seconds",
		Help:    "Wall-clock duration of a drift detection pass.",
		Buckets: prometheus.DefBuckets,
	})

	VerifyECE = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vibecheck_verify_calibration_error",
		Help: "Expected calibration error of the claim verifier, by claim type and source.",
	}, []string{"claim_type", "source"})

	VerifyBrier = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vibecheck_verify_brier_score",
		Help: "Brier score of the claim verifier across all recorded feedback.",
	})

	ShipScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vibecheck_ship_score",
		Help: "Most recent Ship Score (0-100).",
	})
)

// Serve starts the Prometheus /metrics endpoint at addr and blocks until
// ctx is canceled or the server errors. Mirrors vjache-cie's
// --metrics-addr-guarded promhttp.Handler startup: callers only invoke
// Serve when an address was actually configured.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
