package geo

import "testing"

// TestCanonical_Aliases verifies alias normalization onto canonical names.
func TestCanonical_Aliases(t *testing.T) {
	tables := DefaultTables()

	cases := map[string]string{
		"USA":           "United States",
		"us":            "United States",
		"United States": "United States",
		"UK":            "United Kingdom",
		"Deutschland":   "Germany",
		"España":        "Spain",
		"Italia":        "Italy",
		"Schweiz":       "Switzerland",
		"  France  ":    "France",
	}
	for in, want := range cases {
		if got := tables.Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestCanonical_Rejects verifies that non-answers normalize to empty.
func TestCanonical_Rejects(t *testing.T) {
	tables := DefaultTables()

	for _, in := range []string{"", "  ", "unknown", "Unknown", "none", "Unknown (tor mirror)"} {
		if got := tables.Canonical(in); got != "" {
			t.Errorf("Canonical(%q) = %q, want empty", in, got)
		}
	}
}

// TestCanonical_PassesThroughUnlisted verifies that names outside the alias
// table flow through unchanged: the classifier may answer with countries the
// tables do not know, and those answers must survive normalization.
func TestCanonical_PassesThroughUnlisted(t *testing.T) {
	tables := DefaultTables()

	for _, in := range []string{"Liechtenstein", "Kosovo", "San Marino"} {
		if got := tables.Canonical(in); got != in {
			t.Errorf("Canonical(%q) = %q, want pass-through", in, got)
		}
	}
}

func TestIsCountry(t *testing.T) {
	tables := DefaultTables()

	if !tables.IsCountry("Germany") {
		t.Error("IsCountry(Germany) = false")
	}
	if !tables.IsCountry("usa") {
		t.Error("IsCountry(usa) = false, aliases should count")
	}
	if tables.IsCountry("TX") {
		t.Error("IsCountry(TX) = true, region codes are not countries")
	}
	if tables.IsCountry("") {
		t.Error("IsCountry(\"\") = true")
	}
}

func TestCountryForTLD(t *testing.T) {
	cases := map[string]string{
		"de":  "Germany",
		".DE": "Germany",
		"fr":  "France",
		"uk":  "United Kingdom",
		"br":  "Brazil",
	}
	tables := DefaultTables()
	for tld, want := range cases {
		got, ok := tables.CountryForTLD(tld)
		if !ok || got != want {
			t.Errorf("CountryForTLD(%q) = %q, %v; want %q", tld, got, ok, want)
		}
	}

	// Generic TLDs carry no geographic signal.
	for _, tld := range []string{"com", "org", "net", ""} {
		if got, ok := tables.CountryForTLD(tld); ok {
			t.Errorf("CountryForTLD(%q) = %q, want no match", tld, got)
		}
	}
}

func TestISO3(t *testing.T) {
	tables := DefaultTables()

	if got := tables.ISO3("United States"); got != "USA" {
		t.Errorf("ISO3(United States) = %q, want USA", got)
	}
	if got := tables.ISO3("Germany"); got != "DEU" {
		t.Errorf("ISO3(Germany) = %q, want DEU", got)
	}
	// Unknown countries fall back to the uppercased prefix so rows still
	// round-trip through the renderer keyed by something stable.
	if got := tables.ISO3("Ruritania"); got != "RUR" {
		t.Errorf("ISO3(Ruritania) = %q, want RUR", got)
	}
}

func TestCountryNames_SortedAndCanonical(t *testing.T) {
	names := DefaultTables().CountryNames()
	if len(names) < 50 {
		t.Fatalf("CountryNames() returned %d names, expected the full table", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("CountryNames() not strictly sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}
