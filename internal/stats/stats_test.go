package stats

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/catcraft/Ransomware-Patterns/internal/geo"
	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

func resolved(identity, country string) leak.ResolvedRecord {
	rec := leak.ResolvedRecord{
		RawRecord:    leak.RawRecord{Identity: identity},
		Source:       leak.SourceExplicit,
		FinalCountry: country,
	}
	if country == leak.Unknown {
		rec.Source = leak.SourceUnknown
	}
	return rec
}

// TestAggregate verifies the fold and the conservation invariant: every
// record lands in exactly one bucket.
func TestAggregate(t *testing.T) {
	records := []leak.ResolvedRecord{
		resolved("a.de", "Germany"),
		resolved("b.de", "Germany"),
		resolved("c.fr", "France"),
		resolved("d.com", leak.Unknown),
	}

	counts, unknown := Aggregate(records)
	want := map[string]int{"Germany": 2, "France": 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	if unknown != 1 {
		t.Errorf("unknown = %d, want 1", unknown)
	}

	total := unknown
	for _, n := range counts {
		total += n
	}
	if total != len(records) {
		t.Errorf("conservation violated: %d buckets for %d records", total, len(records))
	}
}

// TestSeverityFor pins the tier boundaries: a ratio exactly on a boundary
// belongs to the lower tier.
func TestSeverityFor(t *testing.T) {
	const max = 100.0
	cases := []struct {
		value float64
		want  leak.Severity
	}{
		{0, leak.SeverityNoData},
		{1, leak.SeverityLow},
		{10, leak.SeverityLow},
		{10.0001, leak.SeverityMedium},
		{30, leak.SeverityMedium},
		{30.0001, leak.SeverityHigh},
		{60, leak.SeverityHigh},
		{60.0001, leak.SeverityCritical},
		{100, leak.SeverityCritical},
	}
	for _, tc := range cases {
		if got := SeverityFor(tc.value, max); got != tc.want {
			t.Errorf("SeverityFor(%v, %v) = %q, want %q", tc.value, max, got, tc.want)
		}
	}

	if got := SeverityFor(5, 0); got != leak.SeverityNoData {
		t.Errorf("SeverityFor with zero max = %q, want No Data", got)
	}
}

// TestLogCount checks the compression curve and its monotonicity.
func TestLogCount(t *testing.T) {
	if got := LogCount(0); got != 0 {
		t.Errorf("LogCount(0) = %v, want 0", got)
	}
	if got := LogCount(9); math.Abs(got-1) > 1e-9 {
		t.Errorf("LogCount(9) = %v, want 1", got)
	}
	prev := -1.0
	for n := 0; n < 1000; n += 7 {
		v := LogCount(n)
		if v <= prev {
			t.Fatalf("LogCount not strictly increasing at %d", n)
		}
		prev = v
	}
}

func populationFixture(t *testing.T) *geo.PopulationTable {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pop.csv")
	csv := `Country Name,Country Code,Indicator Name,2024
Germany,DEU,"Population, total",80000000
Iceland,ISL,"Population, total",400000
`
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := geo.LoadPopulation(path)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// TestDeriveMetrics_CountBasis checks severity against the count maximum
// and the deterministic output order.
func TestDeriveMetrics_CountBasis(t *testing.T) {
	counts := map[string]int{"Germany": 100, "France": 25, "Iceland": 4}

	metrics := DeriveMetrics(counts, geo.DefaultTables(), nil, BasisCount)
	if len(metrics) != 3 {
		t.Fatalf("got %d metrics, want 3", len(metrics))
	}

	// Sorted by country name.
	order := []string{"France", "Germany", "Iceland"}
	for i, m := range metrics {
		if m.Country != order[i] {
			t.Fatalf("order[%d] = %q, want %q", i, m.Country, order[i])
		}
	}

	byCountry := map[string]leak.CountryMetric{}
	for _, m := range metrics {
		byCountry[m.Country] = m
	}
	if byCountry["Germany"].Severity != leak.SeverityCritical {
		t.Errorf("Germany severity = %q, want Critical at 100%% of max", byCountry["Germany"].Severity)
	}
	if byCountry["France"].Severity != leak.SeverityMedium {
		t.Errorf("France severity = %q, want Medium at 25%% of max", byCountry["France"].Severity)
	}
	if byCountry["Iceland"].Severity != leak.SeverityLow {
		t.Errorf("Iceland severity = %q, want Low at 4%% of max", byCountry["Iceland"].Severity)
	}
	if byCountry["Germany"].ISO3 != "DEU" {
		t.Errorf("Germany ISO3 = %q, want DEU", byCountry["Germany"].ISO3)
	}
	if byCountry["Germany"].Population != nil {
		t.Error("Population must stay nil without a population table")
	}
}

// TestDeriveMetrics_PerMillionBasis checks that normalization flips the
// ranking and that countries without population data become No Data.
func TestDeriveMetrics_PerMillionBasis(t *testing.T) {
	counts := map[string]int{"Germany": 100, "Iceland": 4, "France": 25}

	metrics := DeriveMetrics(counts, geo.DefaultTables(), populationFixture(t), BasisPerMillion)
	byCountry := map[string]leak.CountryMetric{}
	for _, m := range metrics {
		byCountry[m.Country] = m
	}

	// Iceland: 4 / 400k * 1M = 10 per million, the maximum.
	ice := byCountry["Iceland"]
	if ice.PerMillion == nil || math.Abs(*ice.PerMillion-10) > 1e-9 {
		t.Fatalf("Iceland PerMillion = %v, want 10", ice.PerMillion)
	}
	if ice.Severity != leak.SeverityCritical {
		t.Errorf("Iceland severity = %q, want Critical on the per-capita basis", ice.Severity)
	}

	// Germany: 100 / 80M * 1M = 1.25 per million, 12.5% of max.
	ger := byCountry["Germany"]
	if ger.PerMillion == nil || math.Abs(*ger.PerMillion-1.25) > 1e-9 {
		t.Fatalf("Germany PerMillion = %v, want 1.25", ger.PerMillion)
	}
	if ger.Severity != leak.SeverityMedium {
		t.Errorf("Germany severity = %q, want Medium at 12.5%% of max", ger.Severity)
	}

	// France has no population row: nil rate, No Data severity.
	fra := byCountry["France"]
	if fra.PerMillion != nil {
		t.Errorf("France PerMillion = %v, want nil", *fra.PerMillion)
	}
	if fra.Severity != leak.SeverityNoData {
		t.Errorf("France severity = %q, want No Data", fra.Severity)
	}
}

func TestWriteReport(t *testing.T) {
	counts := map[string]int{"Germany": 3, "Iceland": 1}
	metrics := DeriveMetrics(counts, geo.DefaultTables(), populationFixture(t), BasisCount)

	var buf bytes.Buffer
	WriteReport(&buf, metrics, 2)
	out := buf.String()

	for _, want := range []string{
		"Total attributed leaks: 4",
		"Countries with leaks:   2",
		"Unresolved postings:    2",
		"TOP 10 MOST AFFECTED COUNTRIES",
		"TOP 10 BY LEAKS PER MILLION",
		"Germany",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
