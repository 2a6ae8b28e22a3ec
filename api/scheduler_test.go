package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInbox(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestImportScheduler_RunNow(t *testing.T) {
	// GIVEN: An inbox with a good export, a broken one and an unrelated file
	h, _ := newTestServer(t)
	inbox := t.TempDir()
	writeInbox(t, inbox, "a-january.csv", weekCSV)
	writeInbox(t, inbox, "b-broken.csv", "hello\nworld\n")
	writeInbox(t, inbox, "notes.txt", "not a punch file")

	s := NewImportScheduler(h, inbox)

	// WHEN: The inbox is scanned
	summary := s.RunNow()

	// THEN: Each punch file is moved according to its outcome
	assert.Equal(t, ImportSummary{Processed: 1, Failed: 1}, summary)
	assert.FileExists(t, filepath.Join(inbox, processedDir, "a-january.csv"))
	assert.FileExists(t, filepath.Join(inbox, failedDir, "b-broken.csv"))
	assert.FileExists(t, filepath.Join(inbox, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(inbox, "a-january.csv"))

	// AND: The good file was ingested
	runs, err := h.Store.ListIngestionRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "a-january.csv", runs[0].Source)

	// AND: A second scan finds nothing new
	assert.Equal(t, ImportSummary{}, s.RunNow())
}

func TestImportScheduler_DuplicateNameKeepsBoth(t *testing.T) {
	h, _ := newTestServer(t)
	inbox := t.TempDir()
	s := NewImportScheduler(h, inbox)

	writeInbox(t, inbox, "daily.csv", weekCSV)
	s.RunNow()
	writeInbox(t, inbox, "daily.csv", weekCSV)
	s.RunNow()

	entries, err := os.ReadDir(filepath.Join(inbox, processedDir))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestImportScheduler_MissingInbox(t *testing.T) {
	h, _ := newTestServer(t)
	s := NewImportScheduler(h, filepath.Join(t.TempDir(), "absent"))

	assert.Equal(t, ImportSummary{}, s.RunNow())
}

func TestImportScheduler_StartScansImmediately(t *testing.T) {
	// GIVEN: A file waiting in the inbox
	h, _ := newTestServer(t)
	inbox := t.TempDir()
	writeInbox(t, inbox, "january.csv", weekCSV)

	s := NewImportScheduler(h, inbox)
	s.Interval = time.Hour

	// WHEN: The scheduler starts and stops
	s.Start()
	s.Stop()

	// THEN: The startup scan has run to completion
	assert.FileExists(t, filepath.Join(inbox, processedDir, "january.csv"))

	// AND: Stopping twice is harmless
	s.Stop()
}
