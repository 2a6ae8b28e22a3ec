/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Build the logger
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Start the inbox import scheduler when an inbox is configured
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port       HTTP server port (PORT, default: 8080)
  -db         SQLite database path (DB_PATH, default: attendance.db)
              Use ":memory:" for in-memory database
  -log-level  logrus level (LOG_LEVEL, default: info)
  -inbox      Directory polled for punch files (IMPORT_INBOX)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the import scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/attendance.db"

  # Watch a directory for device exports
  ./server -inbox=/srv/punches

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	inbox := flag.String("inbox", cfg.ImportInbox, "Directory polled for punch files")
	flag.Parse()

	logger, err := config.NewLogger(*logLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logger configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger)
	handler.SetCalendar(cfg.Calendar())
	handler.MaxUploadBytes = cfg.MaxUploadBytes()

	var scheduler *api.ImportScheduler
	if *inbox != "" {
		scheduler = api.NewImportScheduler(handler, *inbox)
		scheduler.Interval = cfg.ImportInterval
		scheduler.Start()
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"port":       *port,
			"db":         *dbPath,
			"week_start": cfg.WeekStart.String(),
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}

	logger.Info("server stopped")
}
