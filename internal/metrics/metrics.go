package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitstrap/internal/logging"
)

var (
	initOnce    sync.Once
	serverMutex sync.Mutex
	currentSrv  *http.Server

	// RunsTotal counts bootstrap runs by final verdict
	RunsTotal *prometheus.CounterVec

	// StageFailuresTotal counts failures per stage label
	StageFailuresTotal *prometheus.CounterVec

	// StageDuration tracks per-stage wall time
	StageDuration *prometheus.HistogramVec

	// DNSAttemptsTotal counts name-resolution probes across runs
	DNSAttemptsTotal prometheus.Counter

	// CloneAttemptsTotal counts clone attempts across runs
	CloneAttemptsTotal prometheus.Counter

	// LastRunTimestamp records when the last run finished
	LastRunTimestamp prometheus.Gauge

	// LastRunExitCode records the last run's aggregate code
	LastRunExitCode prometheus.Gauge
)

// Init registers all metrics with Prometheus; safe to call multiple
// times. Recording functions are no-ops until Init runs, so packages can
// record unconditionally and tests never trip on unregistered metrics.
func Init() {
	initOnce.Do(func() {
		RunsTotal = NewCounterVec(
			"gitstrap_runs_total",
			"Total bootstrap runs by verdict.",
			[]string{"verdict"},
		)
		StageFailuresTotal = NewCounterVec(
			"gitstrap_stage_failures_total",
			"Total stage failures by stage label.",
			[]string{"stage"},
		)
		StageDuration = NewDurationHistogramVec(
			"gitstrap_stage_duration_seconds",
			"Duration of bootstrap stages in seconds.",
			[]string{"stage"},
		)
		DNSAttemptsTotal = NewCounter(
			"gitstrap_dns_attempts_total",
			"Total DNS resolution attempts.",
		)
		CloneAttemptsTotal = NewCounter(
			"gitstrap_clone_attempts_total",
			"Total source clone attempts.",
		)
		LastRunTimestamp = NewGauge(
			"gitstrap_last_run_timestamp_seconds",
			"Unix timestamp of the last completed run.",
		)
		LastRunExitCode = NewGauge(
			"gitstrap_last_run_exit_code",
			"Aggregate exit code of the last completed run.",
		)

		prometheus.MustRegister(
			RunsTotal,
			StageFailuresTotal,
			StageDuration,
			DNSAttemptsTotal,
			CloneAttemptsTotal,
			LastRunTimestamp,
			LastRunExitCode,
		)
	})
}

// RecordRun folds one finished run into the counters
func RecordRun(exitCode int) {
	if RunsTotal == nil {
		return
	}
	verdict := "success"
	if exitCode != 0 {
		verdict = "failure"
	}
	RunsTotal.WithLabelValues(verdict).Inc()
	LastRunTimestamp.SetToCurrentTime()
	LastRunExitCode.Set(float64(exitCode))
}

// RecordStageFailure counts a failed stage by label
func RecordStageFailure(stage string) {
	if StageFailuresTotal == nil {
		return
	}
	StageFailuresTotal.WithLabelValues(stage).Inc()
}

// ObserveStage records one stage's duration
func ObserveStage(stage string, d time.Duration) {
	if StageDuration == nil {
		return
	}
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddDNSAttempts counts resolution probes from one wait loop
func AddDNSAttempts(n int) {
	if DNSAttemptsTotal == nil || n <= 0 {
		return
	}
	DNSAttemptsTotal.Add(float64(n))
}

// AddCloneAttempts counts clone attempts from one acquisition
func AddCloneAttempts(n int) {
	if CloneAttemptsTotal == nil || n <= 0 {
		return
	}
	CloneAttemptsTotal.Add(float64(n))
}

// StartServer exposes /metrics on addr for hosts that keep the
// bootstrap binary resident; one-shot runs simply never call this
func StartServer(addr string, logger *logging.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Warnf("metrics", "metrics server already running on %s", currentSrv.Addr)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	currentSrv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := currentSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics", "metrics server: %v", err)
		}
	}()
}
