package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gitstrap/internal/bootstrap"
	"gitstrap/internal/config"
	"gitstrap/internal/exitcodes"
	"gitstrap/internal/history"
	"gitstrap/internal/logging"
	"gitstrap/internal/metrics"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "/etc/gitstrap/config.yaml", "Path to configuration file")
	root := flag.String("root", "", "Explicit deployment root (overrides discovery and environment)")
	dryRun := flag.Bool("dry-run", false, "Resolve, verify, and wait for DNS without acquiring or installing")
	flag.Parse()

	// Load configuration; a missing file falls back to built-in defaults
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("ERROR: Failed to load config: %v", err)
		os.Exit(exitcodes.InvalidConfig)
	}

	// Open the per-run log before anything else; the run's verdict is
	// worthless to operators without it
	logger, err := logging.New(cfg.Logging.Dir)
	if err != nil {
		log.Printf("ERROR: Failed to open run log: %v", err)
		os.Exit(exitcodes.InvalidConfig)
	}
	logging.PruneOld(cfg.Logging.Dir, cfg.Logging.RetentionDays)

	logger.Infof("main", "gitstrap starting, log at %s", logger.Path())
	logger.Infof("main", "config file: %s", *configPath)
	if *dryRun {
		logger.Infof("main", "DRY RUN MODE: source will not be acquired or installed")
	}

	// Initialize metrics (Prometheus)
	metrics.Init()
	if cfg.Prometheus.Port > 0 {
		addr := cfg.PrometheusAddress()
		logger.Infof("main", "starting Prometheus metrics on %s", addr)
		metrics.StartServer(addr, logger)
	}

	// Open the run-history database; history is diagnostic, so a broken
	// database degrades to log-only operation instead of blocking the run
	var db *history.RunDB
	if cfg.HistoryDB != "" {
		db, err = history.NewRunDB(cfg.HistoryDB)
		if err != nil {
			logger.Warnf("main", "run history unavailable: %v", err)
			db = nil
		} else {
			defer func() {
				if err := db.Close(); err != nil {
					logger.Errorf("main", "failed to close history database: %v", err)
				}
			}()
		}
	}

	// Cancel in-flight sleeps and subprocesses on termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("main", "received signal %v, aborting run", sig)
		cancel()
	}()

	outcome, results, info := bootstrap.Execute(ctx, cfg, bootstrap.Options{
		ExplicitRoot: *root,
		DryRun:       *dryRun,
	}, bootstrap.OSDeps(), logger)

	if db != nil {
		if runID, err := db.RecordRun(info.StartedAt, outcome, results.Entries(), info.Branch, info.CommitRef); err != nil {
			logger.Errorf("main", "failed to persist run history: %v", err)
		} else {
			logger.Infof("main", "run recorded as history id %d", runID)
		}
	}

	logger.Infof("main", "exiting with code %d", outcome.ExitCode)
	logger.Close()
	os.Exit(outcome.ExitCode)
}
