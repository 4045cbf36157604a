// Package resolve implements the country-attribution fallback chain. The
// chain is deterministic given the same record and oracle response: the
// first stage that yields a recognizable, non-unknown country wins, and
// every stage's output passes the same alias normalization.
package resolve

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/catcraft/Ransomware-Patterns/internal/classify"
	"github.com/catcraft/Ransomware-Patterns/internal/geo"
	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

// regionCodes maps two-letter state/province abbreviations to the country
// they imply. Matched as standalone uppercase tokens only.
var regionCodes = map[string]string{
	// US states seen in the dumps
	"TX": "United States", "CA": "United States", "NY": "United States",
	"FL": "United States", "WA": "United States", "IL": "United States",
	"PA": "United States", "OH": "United States", "GA": "United States",
	"NC": "United States", "MI": "United States", "NJ": "United States",
	"VA": "United States", "AZ": "United States", "MA": "United States",
	"TN": "United States", "CO": "United States", "MN": "United States",
	// Canadian provinces
	"ON": "Canada", "BC": "Canada", "QC": "Canada", "AB": "Canada",
}

// Resolver maps raw leak records to attributed ones. Safe for concurrent
// use; the reference tables are read-only and the oracle carries its own
// synchronization.
type Resolver struct {
	tables    *geo.Tables
	oracle    classify.Oracle
	logger    *zap.Logger
	countryRe *regexp.Regexp
	regionRe  *regexp.Regexp
}

// New builds a resolver around the given tables and classifier oracle.
// Pass classify.Disabled to skip the classifier stage entirely.
func New(tables *geo.Tables, oracle classify.Oracle, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	// One alternation over all known country names, longest first so
	// "United Arab Emirates" beats shorter prefixes.
	names := tables.CountryNames()
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for i, n := range names {
		names[i] = regexp.QuoteMeta(n)
	}
	countryRe := regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)\b`)

	codes := make([]string, 0, len(regionCodes))
	for code := range regionCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	regionRe := regexp.MustCompile(`\b(` + strings.Join(codes, "|") + `)\b`)

	return &Resolver{
		tables:    tables,
		oracle:    oracle,
		logger:    logger,
		countryRe: countryRe,
		regionRe:  regionRe,
	}
}

// Resolve runs the fallback chain over one record. It never fails: when no
// stage succeeds the record resolves to leak.Unknown.
func (r *Resolver) Resolve(ctx context.Context, rec leak.RawRecord) leak.ResolvedRecord {
	resolved := leak.ResolvedRecord{
		RawRecord:  rec,
		ResolvedAt: time.Now().UTC(),
	}

	// Stage 1: explicit label. Accepted only when it canonicalizes to a
	// country the tables recognize; a stray region label like "TX" falls
	// through and stays available to the heuristic stage.
	if rec.ExplicitCountry != "" && r.tables.IsCountry(rec.ExplicitCountry) {
		resolved.Source = leak.SourceExplicit
		resolved.FinalCountry = r.tables.Canonical(rec.ExplicitCountry)
		return resolved
	}

	// Stage 2: classifier oracle. Failures arrive as "unknown".
	answer := r.oracle.Country(ctx, rec.FreeText)
	if !strings.EqualFold(answer, classify.UnknownCountry) {
		resolved.ClassifierCountry = answer
	}
	if country := r.tables.Canonical(answer); country != "" {
		resolved.Source = leak.SourceClassifier
		resolved.FinalCountry = country
		return resolved
	}

	// Stage 3: TLD lookup.
	if rec.TLD != "" {
		if country, ok := r.tables.CountryForTLD(rec.TLD); ok {
			resolved.Source = leak.SourceTLD
			resolved.FinalCountry = r.tables.Canonical(country)
			return resolved
		}
	}

	// Stage 4: free-text heuristic.
	if country := r.heuristic(rec); country != "" {
		resolved.Source = leak.SourceHeuristic
		resolved.FinalCountry = country
		return resolved
	}

	resolved.Source = leak.SourceUnknown
	resolved.FinalCountry = leak.Unknown
	r.logger.Debug("record unresolved", zap.String("identity", rec.Identity))
	return resolved
}

// heuristic scans the free-text context for known country keywords, then
// for regional abbreviations implying a country.
func (r *Resolver) heuristic(rec leak.RawRecord) string {
	text := rec.ExplicitCountry + "\n" + rec.FreeText

	if m := r.countryRe.FindString(text); m != "" {
		if country := r.tables.Canonical(m); country != "" {
			return country
		}
	}
	if m := r.regionRe.FindString(text); m != "" {
		return regionCodes[m]
	}
	return ""
}
