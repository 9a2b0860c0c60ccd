/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the timesheet engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (file + TIMESHEET_* environment)
  3. Build the zap logger
  4. Initialize SQLite store and load the work calendar
  5. Wire the engine, notifier, and API handler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional; env and defaults
           apply without one)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (configurable timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Defaults: ./data/timesheet.db on :8080
  ./server

  # Explicit config file
  ./server -config=./config.yaml

  # Environment overrides
  TIMESHEET_DATABASE_PATH=":memory:" TIMESHEET_SERVER_PORT=3000 ./server

SEE ALSO:
  - config/config.go: Configuration schema
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/engine"
	"github.com/warp/timesheet-engine/logging"
	"github.com/warp/timesheet-engine/notify"
	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timeclock"
	"github.com/warp/timesheet-engine/timesheet"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	cal, err := store.LoadCalendar(context.Background())
	if err != nil {
		logger.Fatal("failed to load work calendar", zap.Error(err))
	}

	policy, err := policyFromConfig(cfg.Policy)
	if err != nil {
		logger.Fatal("invalid policy configuration", zap.Error(err))
	}

	eng := engine.New(store, timeclock.SystemClock{}, logger.Named("engine"))
	eng.Policy = policy
	eng.Calendar = cal

	notifier := notify.NewLogNotifier(logger.Named("notify"))
	handler := api.NewHandler(eng, store, cal, notifier, logger.Named("api"))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr()),
			zap.String("db", cfg.Database.Path),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func policyFromConfig(pc config.PolicyConfig) (timesheet.Policy, error) {
	p := timesheet.DefaultPolicy()
	if pc.DailyLimitHours != "" {
		limit, err := timeclock.ParseHours(pc.DailyLimitHours)
		if err != nil {
			return p, err
		}
		p.DailyLimit = limit
	}
	if pc.MinIncrementHours != "" && pc.MinIncrementHours != "0" {
		inc, err := timeclock.ParseHours(pc.MinIncrementHours)
		if err != nil {
			return p, err
		}
		p.MinIncrement = inc
	}
	return p, nil
}
