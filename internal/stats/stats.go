// Package stats folds resolved records into per-country counts and derives
// the render-ready metrics: log-scaled counts, per-capita rates, and
// severity tiers relative to the maximum observed value.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/catcraft/Ransomware-Patterns/internal/geo"
	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

// Basis selects which metric severity is ranked against.
type Basis string

const (
	// BasisCount ranks against the raw leak count (absolute maps).
	BasisCount Basis = "count"
	// BasisPerMillion ranks against the per-capita rate (normalized maps).
	BasisPerMillion Basis = "per_million"
)

// Aggregate is a pure fold of resolved records into country counts.
// Records attributed to leak.Unknown are excluded from the mapping but
// counted separately so totals stay conserved.
func Aggregate(records []leak.ResolvedRecord) (counts map[string]int, unknown int) {
	counts = make(map[string]int)
	for _, rec := range records {
		if !rec.Attributed() {
			unknown++
			continue
		}
		counts[rec.FinalCountry]++
	}
	return counts, unknown
}

// LogCount compresses a count for rendering scale: log10(count+1).
// Strictly increasing in count; never used for severity comparison.
func LogCount(count int) float64 {
	return math.Log10(float64(count) + 1)
}

// SeverityFor buckets a value against the maximum of the same metric.
// Boundary ratios belong to the lower tier: exactly 10% of max is Low.
func SeverityFor(value, max float64) leak.Severity {
	if value == 0 || max <= 0 {
		return leak.SeverityNoData
	}
	ratio := value / max
	switch {
	case ratio <= 0.10:
		return leak.SeverityLow
	case ratio <= 0.30:
		return leak.SeverityMedium
	case ratio <= 0.60:
		return leak.SeverityHigh
	default:
		return leak.SeverityCritical
	}
}

// DeriveMetrics turns raw counts into CountryMetrics. Population (and
// therefore PerMillion) stays nil when the population table has no entry
// for the country's ISO3 code; on the per-million basis such countries are
// SeverityNoData rather than being conflated with a true zero rate.
func DeriveMetrics(counts map[string]int, tables *geo.Tables, population *geo.PopulationTable, basis Basis) []leak.CountryMetric {
	metrics := make([]leak.CountryMetric, 0, len(counts))
	for country, count := range counts {
		m := leak.CountryMetric{
			Country:  country,
			ISO3:     tables.ISO3(country),
			Count:    count,
			LogCount: LogCount(count),
		}
		if pop, ok := population.Lookup(m.ISO3); ok && pop > 0 {
			m.Population = &pop
			perMillion := float64(count) / pop * 1_000_000
			m.PerMillion = &perMillion
		}
		metrics = append(metrics, m)
	}

	// Deterministic output order regardless of map iteration.
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Country < metrics[j].Country })

	max := 0.0
	for _, m := range metrics {
		if v, ok := basisValue(m, basis); ok && v > max {
			max = v
		}
	}
	for i := range metrics {
		v, ok := basisValue(metrics[i], basis)
		if !ok {
			metrics[i].Severity = leak.SeverityNoData
			continue
		}
		metrics[i].Severity = SeverityFor(v, max)
	}
	return metrics
}

func basisValue(m leak.CountryMetric, basis Basis) (float64, bool) {
	switch basis {
	case BasisPerMillion:
		if m.PerMillion == nil {
			return 0, false
		}
		return *m.PerMillion, true
	default:
		return float64(m.Count), true
	}
}

// WriteReport prints run statistics: totals, then the top-10 countries by
// count and (when populated) by per-million rate.
func WriteReport(w io.Writer, metrics []leak.CountryMetric, unknown int) {
	total := 0
	for _, m := range metrics {
		total += m.Count
	}

	fmt.Fprintf(w, "\n=== LEAK MAP STATISTICS ===\n")
	fmt.Fprintf(w, "Total attributed leaks: %d\n", total)
	fmt.Fprintf(w, "Countries with leaks:   %d\n", len(metrics))
	fmt.Fprintf(w, "Unresolved postings:    %d\n", unknown)
	if len(metrics) > 0 {
		fmt.Fprintf(w, "Average per country:    %.1f\n", float64(total)/float64(len(metrics)))
	}

	byCount := append([]leak.CountryMetric(nil), metrics...)
	sort.Slice(byCount, func(i, j int) bool { return byCount[i].Count > byCount[j].Count })
	fmt.Fprintf(w, "\n=== TOP 10 MOST AFFECTED COUNTRIES ===\n")
	for i, m := range byCount {
		if i >= 10 {
			break
		}
		pct := 0.0
		if total > 0 {
			pct = float64(m.Count) / float64(total) * 100
		}
		fmt.Fprintf(w, "%2d. %-25s %4d leaks (%4.1f%%)\n", i+1, m.Country, m.Count, pct)
	}

	byRate := byRateDesc(metrics)
	if len(byRate) > 0 {
		fmt.Fprintf(w, "\n=== TOP 10 BY LEAKS PER MILLION ===\n")
		for i, m := range byRate {
			if i >= 10 {
				break
			}
			fmt.Fprintf(w, "%2d. %-25s %10.2f per M\n", i+1, m.Country, *m.PerMillion)
		}
	}
}

func byRateDesc(metrics []leak.CountryMetric) []leak.CountryMetric {
	var out []leak.CountryMetric
	for _, m := range metrics {
		if m.PerMillion != nil {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].PerMillion > *out[j].PerMillion })
	return out
}
