package geo

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// PreferredPopulationYear is used when the population CSV carries a column
// for it; otherwise the latest numeric year column wins.
const PreferredPopulationYear = "2024"

// PopulationTable maps ISO3 codes to a population figure for a single year.
type PopulationTable struct {
	Year   string
	byISO3 map[string]float64
}

// Lookup returns the population for an ISO3 code.
func (p *PopulationTable) Lookup(iso3 string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	pop, ok := p.byISO3[strings.ToUpper(iso3)]
	return pop, ok
}

// Len returns the number of countries with a population figure.
func (p *PopulationTable) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byISO3)
}

// LoadPopulation reads a World-Bank-style population CSV: one row per
// country with a "Country Code" column and one column per year. Rows whose
// "Indicator Name" does not mention population are dropped when that column
// exists. Prefers the 2024 column, else the latest numeric year present.
func LoadPopulation(path string) (*PopulationTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse population csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("population csv has no data rows")
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	var years []int
	for i, name := range header {
		name = strings.TrimSpace(name)
		col[name] = i
		if y, err := strconv.Atoi(name); err == nil {
			years = append(years, y)
		}
	}

	codeIdx, ok := col["Country Code"]
	if !ok {
		return nil, fmt.Errorf("population csv missing Country Code column")
	}

	yearCol := ""
	if _, ok := col[PreferredPopulationYear]; ok {
		yearCol = PreferredPopulationYear
	} else if len(years) > 0 {
		sort.Ints(years)
		yearCol = strconv.Itoa(years[len(years)-1])
	}
	if yearCol == "" {
		return nil, fmt.Errorf("population csv has no usable year column")
	}
	yearIdx := col[yearCol]
	indicatorIdx, hasIndicator := col["Indicator Name"]

	table := &PopulationTable{Year: yearCol, byISO3: make(map[string]float64)}
	for _, row := range rows[1:] {
		if len(row) <= codeIdx || len(row) <= yearIdx {
			continue
		}
		if hasIndicator && len(row) > indicatorIdx &&
			!strings.Contains(strings.ToLower(row[indicatorIdx]), "population") {
			continue
		}
		pop, err := strconv.ParseFloat(strings.TrimSpace(row[yearIdx]), 64)
		if err != nil || pop <= 0 {
			continue
		}
		table.byISO3[strings.ToUpper(strings.TrimSpace(row[codeIdx]))] = pop
	}
	return table, nil
}
