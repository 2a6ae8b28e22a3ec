package attendance

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxReportedRowErrors caps the row errors kept in an IngestResult.
const MaxReportedRowErrors = 50

// Ingestor runs one batch of punch rows through the Daily Aggregator and
// merges the result into a TxStore atomically.
type Ingestor struct {
	Store    TxStore
	Calendar WeekCalendar
	Logger   logrus.FieldLogger

	Now func() time.Time
}

// NewIngestor creates an ingestor with Monday weeks and a discard logger.
func NewIngestor(store TxStore, logger logrus.FieldLogger) *Ingestor {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Ingestor{Store: store, Calendar: DefaultCalendar, Logger: logger, Now: time.Now}
}

// Ingest aggregates rows and writes employees, the raw punch log, the daily
// records and an ingestion run in one transaction. Rejected rows are counted,
// not fatal. A batch with no acceptable rows returns ErrNoValidRows and writes
// nothing.
func (in *Ingestor) Ingest(ctx context.Context, source string, rows []PunchRow, policy PolicyConfig) (*IngestResult, error) {
	now := in.now()
	batch := AggregateDaily(rows, policy)

	result := &IngestResult{
		BatchID:       uuid.NewString(),
		RowsRead:      batch.RowsRead,
		RecordsParsed: batch.Accepted,
		RowsRejected:  len(batch.Rejected),
		EmployeesSeen: len(batch.Employees),
		Anomalies:     batch.Anomalies,
	}
	result.Errors = batch.Rejected
	if len(result.Errors) > MaxReportedRowErrors {
		result.Errors = result.Errors[:MaxReportedRowErrors]
	}
	result.WeeklySummariesCreated = in.countWeeks(batch.Records)

	log := in.logger().WithFields(logrus.Fields{
		"module":   "ingestor",
		"batch_id": result.BatchID,
		"source":   source,
	})

	if batch.Accepted == 0 {
		log.WithField("rows_rejected", result.RowsRejected).Warn("batch has no valid rows")
		return result, ErrNoValidRows
	}

	accepted := make([]PunchRow, 0, batch.Accepted)
	for _, r := range rows {
		if r.EmployeeCode != "" && !r.Date.IsZero() {
			accepted = append(accepted, r)
		}
	}

	err := in.Store.WithTx(ctx, func(s Store) error {
		created, err := s.UpsertEmployees(ctx, batch.Employees)
		if err != nil {
			return fmt.Errorf("upsert employees: %w", err)
		}
		result.EmployeesCreated = created

		if err := s.AppendPunchLogs(ctx, result.BatchID, accepted); err != nil {
			return fmt.Errorf("append punch logs: %w", err)
		}

		created, updated, err := s.ReplaceDailyRecords(ctx, batch.Records)
		if err != nil {
			return fmt.Errorf("replace daily records: %w", err)
		}
		result.DailySummariesCreated = created
		result.DailySummariesUpdated = updated

		return s.SaveIngestionRun(ctx, IngestionRun{
			ID:          result.BatchID,
			Source:      source,
			Status:      RunCompleted,
			Result:      *result,
			StartedAt:   now,
			CompletedAt: in.now(),
		})
	})
	if err != nil {
		log.WithError(err).Error("ingestion failed")
		// Record the failure outside the rolled-back transaction.
		if saveErr := in.Store.SaveIngestionRun(ctx, IngestionRun{
			ID:          result.BatchID,
			Source:      source,
			Status:      RunFailed,
			Error:       err.Error(),
			StartedAt:   now,
			CompletedAt: in.now(),
		}); saveErr != nil {
			log.WithError(saveErr).Warn("could not record failed run")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"rows_read":      result.RowsRead,
		"records_parsed": result.RecordsParsed,
		"rows_rejected":  result.RowsRejected,
		"daily_created":  result.DailySummariesCreated,
		"daily_updated":  result.DailySummariesUpdated,
		"anomalies":      len(result.Anomalies),
	}).Info("batch ingested")

	return result, nil
}

// countWeeks counts the distinct (employee, week) windows touched by records.
func (in *Ingestor) countWeeks(records []DailyRecord) int {
	type key struct {
		code  string
		start Date
	}
	seen := make(map[key]bool)
	for _, r := range records {
		seen[key{r.EmployeeCode, in.Calendar.WeekFor(r.Date).Start}] = true
	}
	return len(seen)
}

func (in *Ingestor) logger() logrus.FieldLogger {
	if in.Logger != nil {
		return in.Logger
	}
	return logrus.StandardLogger()
}

func (in *Ingestor) now() time.Time {
	if in.Now != nil {
		return in.Now()
	}
	return time.Now()
}
