package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

// Merge concatenates per-source result CSVs into one merged store file.
// Duplicate identities keep their first occurrence. Files that cannot be
// read are skipped with a warning; Merge fails only when nothing at all
// could be merged.
func Merge(paths []string, outPath string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	merged := New(outPath, 0, logger)
	merged.state = StateLoaded

	sort.Strings(paths)
	loadedFiles := 0
	for _, path := range paths {
		if filepath.Clean(path) == filepath.Clean(outPath) {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			logger.Warn("skipping unreadable csv", zap.String("path", path), zap.Error(err))
			continue
		}
		recs, err := readRecords(f)
		f.Close()
		if err != nil {
			logger.Warn("skipping malformed csv", zap.String("path", path), zap.Error(err))
			continue
		}
		loadedFiles++
		for _, rec := range recs {
			if merged.Has(rec.Identity) {
				continue
			}
			merged.index[rec.Identity] = len(merged.records)
			merged.records = append(merged.records, rec)
		}
		logger.Info("merged csv", zap.String("path", path), zap.Int("rows", len(recs)))
	}

	if loadedFiles == 0 {
		return 0, fmt.Errorf("no readable result files to merge")
	}

	// Same atomic replace discipline as Flush: a failed write must never
	// leave a truncated merge output behind.
	tmp := outPath + ".tmp"
	if err := merged.writeCSV(tmp); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("write merged results: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("replace merged results: %w", err)
	}
	logger.Info("merge complete",
		zap.String("path", outPath),
		zap.Int("files", loadedFiles),
		zap.Int("records", merged.Len()))
	return merged.Len(), nil
}

// LoadRecords reads a results CSV without attaching a live store to it.
// Used by the render-only path.
func LoadRecords(path string) ([]leak.ResolvedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRecords(f)
}
