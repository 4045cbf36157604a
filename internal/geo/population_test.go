package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func writePopulationCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worldpopulation.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadPopulation_PrefersConfiguredYear verifies that the 2024 column
// wins when present, even with later columns in the file.
func TestLoadPopulation_PrefersConfiguredYear(t *testing.T) {
	path := writePopulationCSV(t, `Country Name,Country Code,Indicator Name,2023,2024
Germany,DEU,"Population, total",83100000,83200000
France,FRA,"Population, total",68000000,68200000
`)

	table, err := LoadPopulation(path)
	if err != nil {
		t.Fatalf("LoadPopulation: %v", err)
	}
	if table.Year != "2024" {
		t.Errorf("Year = %q, want 2024", table.Year)
	}
	pop, ok := table.Lookup("DEU")
	if !ok || pop != 83200000 {
		t.Errorf("Lookup(DEU) = %v, %v; want 83200000", pop, ok)
	}
}

// TestLoadPopulation_FallsBackToLatestYear covers files without a 2024
// column: the latest numeric year column is used.
func TestLoadPopulation_FallsBackToLatestYear(t *testing.T) {
	path := writePopulationCSV(t, `Country Name,Country Code,Indicator Name,2020,2022,2021
Japan,JPN,"Population, total",126000000,124900000,125500000
`)

	table, err := LoadPopulation(path)
	if err != nil {
		t.Fatalf("LoadPopulation: %v", err)
	}
	if table.Year != "2022" {
		t.Errorf("Year = %q, want 2022", table.Year)
	}
	pop, ok := table.Lookup("jpn")
	if !ok || pop != 124900000 {
		t.Errorf("Lookup(jpn) = %v, %v; want 124900000, case-insensitive", pop, ok)
	}
}

// TestLoadPopulation_FiltersNonPopulationIndicators verifies that rows
// carrying other World Bank indicators are dropped.
func TestLoadPopulation_FiltersNonPopulationIndicators(t *testing.T) {
	path := writePopulationCSV(t, `Country Name,Country Code,Indicator Name,2024
Germany,DEU,"Population, total",83200000
Germany,DEU,"GDP (current US$)",4500000000000
Italy,ITA,"Population, total",
`)

	table, err := LoadPopulation(path)
	if err != nil {
		t.Fatalf("LoadPopulation: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (GDP row and blank figure dropped)", table.Len())
	}
	if pop, _ := table.Lookup("DEU"); pop != 83200000 {
		t.Errorf("Lookup(DEU) = %v, want the population row, not GDP", pop)
	}
	if _, ok := table.Lookup("ITA"); ok {
		t.Error("Lookup(ITA) should miss, its figure is blank")
	}
}

func TestLoadPopulation_Errors(t *testing.T) {
	if _, err := LoadPopulation(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writePopulationCSV(t, `Country Name,2024
Germany,83200000
`)
	if _, err := LoadPopulation(path); err == nil {
		t.Error("expected error when Country Code column is absent")
	}
}

func TestPopulationTable_NilSafe(t *testing.T) {
	var table *PopulationTable
	if _, ok := table.Lookup("DEU"); ok {
		t.Error("nil table Lookup should miss")
	}
	if table.Len() != 0 {
		t.Error("nil table Len should be 0")
	}
}
