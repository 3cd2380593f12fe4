package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"apiperf/internal/perf"
)

const bucketRuns = "runs"

// ArchiveEntry is the compact per-run record kept in the archive: enough to
// list and locate past runs without reloading full result files.
type ArchiveEntry struct {
	ID            string    `json:"id"`
	SavedAt       time.Time `json:"saved_at"`
	TestName      string    `json:"test_name"`
	File          string    `json:"file"`
	Iterations    int       `json:"iterations"`
	Concurrent    bool      `json:"concurrent"`
	Endpoints     int       `json:"endpoints"`
	TotalRequests int       `json:"total_requests"`
	FailedCount   int       `json:"failed_count"`
	DurationSec   float64   `json:"duration_sec"`
}

// Archive is a bbolt-backed index of completed runs.
type Archive struct {
	db *bbolt.DB
}

// DefaultArchivePath is ~/.apiperf/runs.db.
func DefaultArchivePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".apiperf")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "runs.db"), nil
}

func OpenArchive(path string) (*Archive, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening run archive: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Record indexes a completed run. Keys are time-prefixed so a reverse cursor
// walk yields newest-first ordering.
func (a *Archive) Record(res *perf.RunResult, file string) (*ArchiveEntry, error) {
	total, failed := 0, 0
	for _, outcomes := range res.RequestResults {
		total += len(outcomes)
		for _, o := range outcomes {
			if !o.Success {
				failed++
			}
		}
	}

	entry := &ArchiveEntry{
		ID:            uuid.New().String(),
		SavedAt:       time.Now(),
		TestName:      res.TestName,
		File:          file,
		Iterations:    res.Iterations,
		Concurrent:    res.Concurrent,
		Endpoints:     len(res.RequestResults),
		TotalRequests: total,
		FailedCount:   failed,
		DurationSec:   res.TotalDuration,
	}

	err := a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		key := []byte(entry.SavedAt.UTC().Format(time.RFC3339Nano) + "_" + entry.ID)
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (a *Archive) List(limit int) ([]ArchiveEntry, error) {
	var entries []ArchiveEntry
	err := a.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e ArchiveEntry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			entries = append(entries, e)
			if limit > 0 && len(entries) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
