/*
scheduler.go - Inbox import scheduler

PURPOSE:
  Periodically scans an inbox directory for punch files dropped there by
  biometric device exports and ingests them through the same path as
  POST /api/upload.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Files are processed in name order, one batch per file
  - Ingested files move to <inbox>/processed, rejected ones to <inbox>/failed
  - Batches that reach the Ingestor appear in the ingestion log

CONFIGURATION:
  - Interval: How often to scan (IMPORT_INTERVAL, default: 1 minute)
  - Inbox: Directory to scan (IMPORT_INBOX, empty = scheduler disabled)

USAGE:
  scheduler := NewImportScheduler(handler, "/var/punches")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ImportFile
*/
package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/ingest"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// ImportScheduler ingests files that appear in an inbox directory.
type ImportScheduler struct {
	Handler  *Handler
	Inbox    string
	Interval time.Duration
	Logger   logrus.FieldLogger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	runMu  sync.Mutex
}

// ImportSummary counts the files handled by one scan.
type ImportSummary struct {
	Processed int
	Failed    int
}

// NewImportScheduler creates a new scheduler.
func NewImportScheduler(handler *Handler, inbox string) *ImportScheduler {
	return &ImportScheduler{
		Handler:  handler,
		Inbox:    inbox,
		Interval: time.Minute,
		Logger:   handler.Logger,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler. It scans once immediately.
func (s *ImportScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)

	go s.run()

	s.log().WithFields(logrus.Fields{"inbox": s.Inbox, "interval": s.Interval.String()}).Info("import scheduler started")
}

// Stop stops the scheduler and waits for a running scan to finish.
func (s *ImportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.stop = make(chan struct{})
		s.log().Info("import scheduler stopped")
	}
}

func (s *ImportScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow()

	for {
		select {
		case <-s.ticker.C:
			s.RunNow()
		case <-s.stop:
			return
		}
	}
}

// RunNow scans the inbox once (for testing/admin).
func (s *ImportScheduler) RunNow() ImportSummary {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var summary ImportSummary

	entries, err := os.ReadDir(s.Inbox)
	if err != nil {
		config.LogError(s.log(), "scheduler", "RunNow", "read inbox", s.Inbox, err)
		return summary
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && ingest.SupportedFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if s.importFile(name) {
			summary.Processed++
		} else {
			summary.Failed++
		}
	}

	if len(names) > 0 {
		s.log().WithFields(logrus.Fields{
			"processed": summary.Processed,
			"failed":    summary.Failed,
		}).Info("inbox scan complete")
	}
	return summary
}

// importFile ingests one inbox file and moves it out of the inbox.
func (s *ImportScheduler) importFile(name string) bool {
	path := filepath.Join(s.Inbox, name)
	log := s.log().WithField("file", name)

	f, err := os.Open(path)
	if err != nil {
		config.LogError(s.log(), "scheduler", "importFile", "open file", name, err)
		return false
	}
	result, err := s.Handler.ImportFile(context.Background(), name, f)
	f.Close()

	dest := processedDir
	if err != nil {
		dest = failedDir
		log.WithError(err).Warn("inbox file rejected")
	} else {
		log.WithFields(logrus.Fields{
			"batch_id":      result.BatchID,
			"rows_read":     result.RowsRead,
			"rows_rejected": result.RowsRejected,
		}).Info("inbox file ingested")
	}

	if moveErr := moveInto(path, filepath.Join(s.Inbox, dest)); moveErr != nil {
		config.LogError(s.log(), "scheduler", "importFile", "move file", name, moveErr)
	}
	return err == nil
}

// moveInto renames path into dir, creating dir as needed. An existing file of
// the same name gets a timestamp prefix.
func moveInto(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	target := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(dir, time.Now().Format("20060102T150405")+"_"+filepath.Base(path))
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(path, target)
}

func (s *ImportScheduler) log() logrus.FieldLogger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}
