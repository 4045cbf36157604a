// Package pipeline wires one run: adapter → resolver → result store. The
// classifier stage dominates latency, so resolution fans out over a bounded
// worker pool; completed batches are re-sorted by identity before they are
// appended so the persisted order is reproducible regardless of worker
// completion order.
package pipeline

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
	"github.com/catcraft/Ransomware-Patterns/internal/resolve"
	"github.com/catcraft/Ransomware-Patterns/internal/source"
	"github.com/catcraft/Ransomware-Patterns/internal/store"
)

// ErrNoRecords is returned when the adapter finds nothing usable in the
// dump. This is the one parse condition that fails a run.
var ErrNoRecords = errors.New("no records could be parsed from input")

// Result summarizes one run.
type Result struct {
	// Parsed is how many records the adapter extracted.
	Parsed int
	// AlreadyResolved is how many were skipped as cached in the store.
	AlreadyResolved int
	// NewlyResolved is how many went through the fallback chain this run.
	NewlyResolved int
	// Interrupted is true when the run stopped early on cancellation;
	// everything resolved up to that point has been flushed.
	Interrupted bool
}

// Pipeline resolves one dump into the result store.
type Pipeline struct {
	adapter  source.Adapter
	resolver *resolve.Resolver
	store    *store.Store
	workers  int
	logger   *zap.Logger
}

// New assembles a pipeline. workers bounds the concurrent classifier
// calls; values below 1 collapse to sequential processing.
func New(adapter source.Adapter, resolver *resolve.Resolver, st *store.Store, workers int, logger *zap.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		adapter:  adapter,
		resolver: resolver,
		store:    st,
		workers:  workers,
		logger:   logger,
	}
}

// Run parses the dump and resolves every record not already in the store.
// On cancellation the records resolved so far are flushed before Run
// returns; a store flush failure aborts the run so the unflushed identities
// are safely reprocessed next time.
func (p *Pipeline) Run(ctx context.Context, input io.Reader) (*Result, error) {
	logger := p.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("source", p.adapter.Name()))

	records, err := p.adapter.Parse(input)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	logger.Info("parsed dump", zap.Int("records", len(records)))

	res := &Result{Parsed: len(records)}

	// Drop in-dump duplicates and already-resolved identities up front so
	// the worker pool only sees real work.
	seen := make(map[string]bool, len(records))
	var todo []leak.RawRecord
	for _, rec := range records {
		if rec.Identity == "" || seen[rec.Identity] {
			continue
		}
		seen[rec.Identity] = true
		if p.store.Has(rec.Identity) {
			res.AlreadyResolved++
			continue
		}
		todo = append(todo, rec)
	}
	logger.Info("resolution plan",
		zap.Int("new", len(todo)),
		zap.Int("cached", res.AlreadyResolved))

	batchSize := p.store.BatchSize()
	for start := 0; start < len(todo); start += batchSize {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		end := start + batchSize
		if end > len(todo) {
			end = len(todo)
		}

		resolved, interrupted := p.resolveBatch(ctx, todo[start:end])
		res.Interrupted = res.Interrupted || interrupted

		// Deterministic flush order regardless of worker completion.
		sort.Slice(resolved, func(i, j int) bool {
			return resolved[i].Identity < resolved[j].Identity
		})
		for _, rec := range resolved {
			added, err := p.store.Append(rec)
			if err != nil {
				return res, err
			}
			if added {
				res.NewlyResolved++
			}
		}
		if interrupted {
			break
		}
	}

	// Final unconditional flush; nothing resolved is silently discarded.
	if err := p.store.Close(); err != nil {
		return res, err
	}

	logger.Info("run complete",
		zap.Int("newly_resolved", res.NewlyResolved),
		zap.Int("cached", res.AlreadyResolved),
		zap.Bool("interrupted", res.Interrupted))
	return res, nil
}

// resolveBatch fans one batch out over the worker pool. Records whose
// resolution did not start before cancellation are dropped; records
// in flight complete through the non-network fallback stages.
func (p *Pipeline) resolveBatch(ctx context.Context, batch []leak.RawRecord) ([]leak.ResolvedRecord, bool) {
	resolved := make([]leak.ResolvedRecord, len(batch))
	started := make([]bool, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	interrupted := false

	for i, rec := range batch {
		if gctx.Err() != nil {
			interrupted = true
			break
		}
		i, rec := i, rec
		g.Go(func() error {
			started[i] = true
			resolved[i] = p.resolver.Resolve(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		interrupted = true
	}

	out := make([]leak.ResolvedRecord, 0, len(batch))
	for i := range batch {
		if started[i] {
			out = append(out, resolved[i])
		}
	}
	return out, interrupted
}
