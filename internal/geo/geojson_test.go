package geo

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

const worldFixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "SQR",
      "properties": {"name": "Squareland"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0, 0], [4, 0], [4, 4], [0, 4]]]
      }
    },
    {
      "type": "Feature",
      "id": "ARC",
      "properties": {"name": "Archipelago"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[10, 10], [12, 10], [12, 12], [10, 12]]],
          [[[20, 20], [22, 20], [22, 22], [20, 22]]]
        ]
      }
    }
  ]
}`

func writeBoundaries(t *testing.T) *Boundaries {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geojson.json")
	if err := os.WriteFile(path, []byte(worldFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBoundaries(path)
	if err != nil {
		t.Fatalf("LoadBoundaries: %v", err)
	}
	return b
}

func TestLoadBoundaries_KeysByFeatureID(t *testing.T) {
	b := writeBoundaries(t)
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}

// TestCentroid_Polygon checks the vertex-mean centroid of a simple square.
func TestCentroid_Polygon(t *testing.T) {
	b := writeBoundaries(t)

	lat, lon, ok := b.Centroid("SQR")
	if !ok {
		t.Fatal("Centroid(SQR) not found")
	}
	// Mean of (0,0) (4,0) (4,4) (0,4) in lon/lat order.
	if math.Abs(lat-2) > 1e-9 || math.Abs(lon-2) > 1e-9 {
		t.Errorf("Centroid(SQR) = (%v, %v), want (2, 2)", lat, lon)
	}
}

// TestCentroid_MultiPolygon checks that only the first polygon's outer ring
// contributes.
func TestCentroid_MultiPolygon(t *testing.T) {
	b := writeBoundaries(t)

	lat, lon, ok := b.Centroid("ARC")
	if !ok {
		t.Fatal("Centroid(ARC) not found")
	}
	if math.Abs(lat-11) > 1e-9 || math.Abs(lon-11) > 1e-9 {
		t.Errorf("Centroid(ARC) = (%v, %v), want (11, 11) from the first polygon", lat, lon)
	}
}

func TestCentroid_Misses(t *testing.T) {
	b := writeBoundaries(t)
	if _, _, ok := b.Centroid("XXX"); ok {
		t.Error("Centroid(XXX) should miss")
	}

	var nilB *Boundaries
	if _, _, ok := nilB.Centroid("SQR"); ok {
		t.Error("nil Boundaries Centroid should miss")
	}
	if nilB.Len() != 0 {
		t.Error("nil Boundaries Len should be 0")
	}
}
