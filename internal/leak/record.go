// Package leak defines the record types shared by the attribution pipeline.
// A RawRecord is what a source adapter extracts from a leak-site dump; a
// ResolvedRecord is the same posting after country attribution.
package leak

import "time"

// ResolutionSource identifies which fallback stage produced a record's
// final country.
type ResolutionSource string

const (
	SourceExplicit   ResolutionSource = "explicit"
	SourceClassifier ResolutionSource = "classifier"
	SourceTLD        ResolutionSource = "tld"
	SourceHeuristic  ResolutionSource = "heuristic"
	SourceUnknown    ResolutionSource = "unknown"
)

// Unknown is the sentinel country for postings no stage could attribute.
const Unknown = "Unknown"

// RawRecord is a single leak posting in the common shape all source
// adapters produce. Immutable once created.
type RawRecord struct {
	// Identity is the stable dedup key: a normalized domain when the dump
	// carries one, otherwise a slug derived from the company name. Never
	// empty for records emitted by an adapter.
	Identity string

	// TLD is the top-level-domain suffix, lowercase, without the dot.
	// Empty when the posting has no domain-like identity.
	TLD string

	// ExplicitCountry is a country label the dump states outright
	// (e.g. the location part of a Qilin company line). Usually empty.
	ExplicitCountry string

	// Description is the posting description as published, persisted
	// verbatim in the result store.
	Description string

	// FreeText is the concatenated description/company/location context
	// handed to the classifier and the heuristic stage.
	FreeText string

	// Status is the posting status as published on the leak site
	// (e.g. "published", "READ_"). Informational only.
	Status string

	// PostedAt is the posting timestamp when the dump carries one.
	PostedAt time.Time
}

// ResolvedRecord is a RawRecord plus the outcome of country attribution.
// Never mutated after it is appended to the result store.
type ResolvedRecord struct {
	RawRecord

	// ClassifierCountry is the raw classifier output, "" when the
	// classifier stage was not consulted or returned unknown.
	ClassifierCountry string

	// Source is the stage that produced FinalCountry.
	Source ResolutionSource

	// FinalCountry is never empty; it equals Unknown iff Source is
	// SourceUnknown.
	FinalCountry string

	ResolvedAt time.Time
}

// Attributed reports whether the record resolved to a real country.
func (r ResolvedRecord) Attributed() bool {
	return r.FinalCountry != Unknown
}

// CountryCount is one row of the per-country aggregate. Recomputed each run
// from the full result set, never persisted.
type CountryCount struct {
	Country string
	Count   int
}

// Severity is the discrete tier a country falls into relative to the
// maximum observed value of the ranked metric.
type Severity string

const (
	SeverityNoData   Severity = "No Data"
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// CountryMetric is the derived, render-ready view of one country.
// Population and PerMillion are nil when no population figure exists for
// the country's ISO3 code; nil is a distinct "no data" state, not zero.
type CountryMetric struct {
	Country    string
	ISO3       string
	Count      int
	LogCount   float64
	Population *float64
	PerMillion *float64
	Severity   Severity
}
