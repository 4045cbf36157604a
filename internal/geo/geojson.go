package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Boundaries wraps the world boundary collection, keyed by the ISO3 id each
// feature carries.
type Boundaries struct {
	Collection *geojson.FeatureCollection
	byID       map[string]*geojson.Feature
}

// LoadBoundaries reads a GeoJSON feature collection whose feature ids are
// ISO3 codes.
func LoadBoundaries(path string) (*Boundaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	b := &Boundaries{
		Collection: fc,
		byID:       make(map[string]*geojson.Feature, len(fc.Features)),
	}
	for _, f := range fc.Features {
		if id, ok := f.ID.(string); ok && id != "" {
			b.byID[id] = f
		}
	}
	return b, nil
}

// Centroid returns a naive centroid for the country keyed by iso3: the mean
// of the outer-ring vertices of the first polygon. Good enough for marker
// placement, not for geometry.
func (b *Boundaries) Centroid(iso3 string) (lat, lon float64, ok bool) {
	if b == nil {
		return 0, 0, false
	}
	f, found := b.byID[iso3]
	if !found || f.Geometry == nil {
		return 0, 0, false
	}

	var ring orb.Ring
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			ring = g[0]
		}
	case orb.MultiPolygon:
		if len(g) > 0 && len(g[0]) > 0 {
			ring = g[0][0]
		}
	}
	if len(ring) == 0 {
		return 0, 0, false
	}

	var sumLat, sumLon float64
	for _, pt := range ring {
		sumLat += pt.Lat()
		sumLon += pt.Lon()
	}
	n := float64(len(ring))
	return sumLat / n, sumLon / n, true
}

// Len returns the number of id-keyed features.
func (b *Boundaries) Len() int {
	if b == nil {
		return 0
	}
	return len(b.byID)
}
