// Package render produces the choropleth HTML artifact. It is the
// mechanical end of the pipeline: given boundary geometry and per-country
// metrics it emits a self-contained Leaflet document with severity-colored
// regions, a discrete legend, and optional magnitude-sized markers.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	"go.uber.org/zap"

	"github.com/catcraft/Ransomware-Patterns/internal/geo"
	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

// DefaultOutputFile is used when the caller does not name one.
const DefaultOutputFile = "leak_map_countries.html"

// severityColors is the discrete YlOrRd-style palette keyed by tier.
var severityColors = map[leak.Severity]string{
	leak.SeverityCritical: "#800026",
	leak.SeverityHigh:     "#BD0026",
	leak.SeverityMedium:   "#E31A1C",
	leak.SeverityLow:      "#FC4E2A",
	leak.SeverityNoData:   "lightgray",
}

// Options controls one rendered document.
type Options struct {
	Title       string
	Subtitle    string
	MetricLabel string

	// ShowMarkers adds the per-country circle marker layer.
	ShowMarkers bool

	// Normalized selects the per-million metric for marker sizing and
	// tooltips; severity is expected to already be bucketed on the same
	// basis by the caller.
	Normalized bool

	// PopulationYear labels per-capita figures, e.g. "2024".
	PopulationYear string
}

// Renderer writes leak maps. A nil Boundaries disables rendering (the
// caller is expected to skip the render step, not crash).
type Renderer struct {
	boundaries *geo.Boundaries
	logger     *zap.Logger
}

// New creates a renderer over the loaded world geometry.
func New(boundaries *geo.Boundaries, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{boundaries: boundaries, logger: logger}
}

// regionData is what the template embeds per country, keyed by ISO3.
type regionData struct {
	Country    string   `json:"country"`
	Count      int      `json:"count"`
	LogCount   float64  `json:"log_count"`
	Population *float64 `json:"population"`
	PerMillion *float64 `json:"per_million"`
	Severity   string   `json:"severity"`
	Color      string   `json:"color"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	HasCoords  bool     `json:"has_coords"`
	Radius     float64  `json:"radius"`
}

type templateData struct {
	Title          string
	Subtitle       string
	MetricLabel    string
	PopulationYear string
	ShowMarkers    bool
	Normalized     bool
	TotalLeaks     int
	Countries      int
	GeoJSON        template.JS
	Regions        template.JS
}

// Render writes the map document to outPath (DefaultOutputFile when empty).
func (r *Renderer) Render(metrics []leak.CountryMetric, opts Options, outPath string) error {
	if r.boundaries == nil || r.boundaries.Len() == 0 {
		return fmt.Errorf("no boundary geometry loaded, cannot render")
	}
	if outPath == "" {
		outPath = DefaultOutputFile
	}

	maxValue := 0.0
	total := 0
	for _, m := range metrics {
		total += m.Count
		if v, ok := metricValue(m, opts.Normalized); ok && v > maxValue {
			maxValue = v
		}
	}

	regions := make(map[string]regionData, len(metrics))
	for _, m := range metrics {
		rd := regionData{
			Country:    m.Country,
			Count:      m.Count,
			LogCount:   m.LogCount,
			Population: m.Population,
			PerMillion: m.PerMillion,
			Severity:   string(m.Severity),
			Color:      severityColors[m.Severity],
			Radius:     markerRadius(m, opts.Normalized, maxValue),
		}
		if lat, lon, ok := r.boundaries.Centroid(m.ISO3); ok {
			rd.Lat, rd.Lon, rd.HasCoords = lat, lon, true
		}
		regions[m.ISO3] = rd
	}

	geoJSON, err := json.Marshal(r.boundaries.Collection)
	if err != nil {
		return fmt.Errorf("marshal geometry: %w", err)
	}
	regionJSON, err := json.Marshal(regions)
	if err != nil {
		return fmt.Errorf("marshal region data: %w", err)
	}

	data := templateData{
		Title:          opts.Title,
		Subtitle:       opts.Subtitle,
		MetricLabel:    opts.MetricLabel,
		PopulationYear: opts.PopulationYear,
		ShowMarkers:    opts.ShowMarkers,
		Normalized:     opts.Normalized,
		TotalLeaks:     total,
		Countries:      len(metrics),
		GeoJSON:        template.JS(geoJSON),
		Regions:        template.JS(regionJSON),
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := mapTemplate.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("render map: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	r.logger.Info("choropleth map saved",
		zap.String("path", outPath),
		zap.Int("countries", len(metrics)),
		zap.Bool("normalized", opts.Normalized))
	return nil
}

func metricValue(m leak.CountryMetric, normalized bool) (float64, bool) {
	if normalized {
		if m.PerMillion == nil {
			return 0, false
		}
		return *m.PerMillion, true
	}
	return float64(m.Count), true
}

// markerRadius sizes circle markers by relative magnitude, clamped so a
// runaway maximum cannot swallow the map. No-data countries get a small
// fixed pin.
func markerRadius(m leak.CountryMetric, normalized bool, max float64) float64 {
	v, ok := metricValue(m, normalized)
	if !ok || max <= 0 {
		return 7
	}
	r := 5 + (v/max)*20
	if r > 25 {
		r = 25
	}
	return r
}

// AbsoluteOptions are the defaults for the count-based map.
func AbsoluteOptions(showMarkers bool) Options {
	return Options{
		Title:       "Global Data Leaks by Country",
		Subtitle:    "Countries colored by number of leaked domains",
		MetricLabel: "Data Leak Intensity",
		ShowMarkers: showMarkers,
	}
}

// NormalizedOptions are the defaults for the per-capita map.
func NormalizedOptions(showMarkers bool, popYear string) Options {
	return Options{
		Title:          "Global Data Leaks per Million Residents",
		Subtitle:       fmt.Sprintf("Countries colored by leaks per million residents (%s)", popYear),
		MetricLabel:    fmt.Sprintf("Leaks per million (%s)", popYear),
		ShowMarkers:    showMarkers,
		Normalized:     true,
		PopulationYear: popYear,
	}
}
