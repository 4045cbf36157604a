// Package store persists resolved records as a CSV cache keyed by record
// identity. The store is append-only and idempotent: an identity that is
// already resolved is never re-processed or mutated, which is what makes
// pipeline re-runs cheap and reproducible.
//
// Durability discipline: single writer, whole-file atomic replace
// (write-to-temp then rename) at a fixed batch interval plus an immutable
// timestamped backup snapshot per flush. A crash mid-flush leaves the prior
// durable file intact.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

// State tracks the store lifecycle.
type State string

const (
	StateEmpty        State = "empty"
	StateLoaded       State = "loaded"
	StateAccumulating State = "accumulating"
	StateFlushed      State = "flushed"
	StateDone         State = "done"
)

// Column names of the persisted schema. Order-independent on read, written
// in this order.
var columns = []string{
	"domain", "tld", "status", "description",
	"ollama_country", "final_country", "processed_at",
}

// DefaultBatchSize is how many newly-resolved records accumulate before an
// automatic flush.
const DefaultBatchSize = 50

// Store is the checkpointed result cache. Not safe for concurrent writers;
// the pipeline serializes all access.
type Store struct {
	path      string
	batchSize int
	logger    *zap.Logger

	state   State
	records []leak.ResolvedRecord
	index   map[string]int
	pending int
}

// New creates a store over path. Call Load before appending.
func New(path string, batchSize int, logger *zap.Logger) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:      path,
		batchSize: batchSize,
		logger:    logger,
		state:     StateEmpty,
		index:     make(map[string]int),
	}
}

// Load reads previously persisted results. A missing file is not an error:
// the run simply starts fresh.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no existing results file, starting fresh", zap.String("path", s.path))
			s.state = StateLoaded
			return nil
		}
		return err
	}
	defer f.Close()

	recs, err := readRecords(f)
	if err != nil {
		return fmt.Errorf("parse results csv: %w", err)
	}
	for _, rec := range recs {
		if _, dup := s.index[rec.Identity]; dup {
			continue
		}
		s.index[rec.Identity] = len(s.records)
		s.records = append(s.records, rec)
	}

	s.state = StateLoaded
	s.logger.Info("loaded existing results",
		zap.String("path", s.path), zap.Int("records", len(s.records)))
	return nil
}

// StartFresh skips loading and begins with an empty resolved set. Any
// existing results file is replaced on the first flush (its backup
// snapshots remain).
func (s *Store) StartFresh() {
	s.state = StateLoaded
}

// readRecords parses a persisted results CSV. Columns are matched by name,
// order-independent; rows without an identity are skipped.
func readRecords(f io.Reader) ([]leak.ResolvedRecord, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	recs := make([]leak.ResolvedRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		identity := field(row, "domain")
		if identity == "" {
			continue
		}
		rec := leak.ResolvedRecord{
			RawRecord: leak.RawRecord{
				Identity:    identity,
				TLD:         field(row, "tld"),
				Status:      field(row, "status"),
				Description: field(row, "description"),
			},
			ClassifierCountry: field(row, "ollama_country"),
			FinalCountry:      field(row, "final_country"),
		}
		if ts, err := time.Parse(time.RFC3339, field(row, "processed_at")); err == nil {
			rec.ResolvedAt = ts
		}
		rec.Source = inferSource(rec)
		recs = append(recs, rec)
	}
	return recs, nil
}

// inferSource reconstructs the resolution stage for rows loaded from disk.
// The persisted schema does not carry the stage, so this is best-effort;
// the one invariant it guarantees is FinalCountry==Unknown iff
// Source==SourceUnknown.
func inferSource(rec leak.ResolvedRecord) leak.ResolutionSource {
	switch {
	case rec.FinalCountry == leak.Unknown || rec.FinalCountry == "":
		return leak.SourceUnknown
	case rec.ClassifierCountry != "":
		return leak.SourceClassifier
	case rec.TLD != "":
		return leak.SourceTLD
	default:
		return leak.SourceHeuristic
	}
}

// Has reports whether identity is already resolved.
func (s *Store) Has(identity string) bool {
	_, ok := s.index[identity]
	return ok
}

// Path returns the results file location.
func (s *Store) Path() string { return s.path }

// Len returns the number of resolved records currently in the store.
func (s *Store) Len() int { return len(s.records) }

// BatchSize returns the configured flush interval.
func (s *Store) BatchSize() int { return s.batchSize }

// Pending returns the number of records appended since the last flush.
func (s *Store) Pending() int { return s.pending }

// State returns the store lifecycle state.
func (s *Store) State() State { return s.state }

// Records returns a copy of the full resolved set in persisted order.
func (s *Store) Records() []leak.ResolvedRecord {
	out := make([]leak.ResolvedRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Append adds a newly-resolved record. Re-appending an already-resolved
// identity is a no-op (returns false). Crossing the batch interval triggers
// an automatic flush.
func (s *Store) Append(rec leak.ResolvedRecord) (bool, error) {
	if rec.FinalCountry == "" {
		return false, fmt.Errorf("record %q has empty final country", rec.Identity)
	}
	if s.Has(rec.Identity) {
		return false, nil
	}

	s.index[rec.Identity] = len(s.records)
	s.records = append(s.records, rec)
	s.pending++
	s.state = StateAccumulating

	if s.pending >= s.batchSize {
		if err := s.Flush(); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Flush atomically rewrites the full result set and drops a timestamped
// backup snapshot next to it. On failure the in-memory pending count is
// preserved so a later flush (or a re-run) covers the same records.
func (s *Store) Flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil && filepath.Dir(s.path) != "." {
		return err
	}

	tmp := s.path + ".tmp"
	if err := s.writeCSV(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace results: %w", err)
	}

	backup := s.backupPath(time.Now())
	if err := s.writeCSV(backup); err != nil {
		// The primary file is durable; a failed backup is only a warning.
		s.logger.Warn("backup snapshot failed", zap.String("path", backup), zap.Error(err))
	}

	s.logger.Info("flushed results",
		zap.String("path", s.path),
		zap.Int("records", len(s.records)),
		zap.Int("newly_resolved", s.pending))
	s.pending = 0
	s.state = StateFlushed
	return nil
}

// Close flushes any pending records and moves the store to its terminal
// state. Safe to call with nothing pending.
func (s *Store) Close() error {
	if s.pending > 0 {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	s.state = StateDone
	return nil
}

// backupPath names snapshots after the flush time; an existing snapshot is
// never overwritten.
func (s *Store) backupPath(now time.Time) string {
	ext := filepath.Ext(s.path)
	base := strings.TrimSuffix(s.path, ext)
	path := fmt.Sprintf("%s_backup_%s%s", base, now.Format("20060102_150405"), ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = fmt.Sprintf("%s_backup_%s_%d%s", base, now.Format("20060102_150405"), i, ext)
	}
}

func (s *Store) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return err
	}
	for _, rec := range s.records {
		row := []string{
			rec.Identity,
			rec.TLD,
			rec.Status,
			rec.Description,
			rec.ClassifierCountry,
			rec.FinalCountry,
			rec.ResolvedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
