package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/twpayne/go-geos"
)

// TestBoundingBoxMatchesFieldTool compares against boxes exported by the field
// collection tool for two surveyed sites. The tool's own algorithm differs by a
// few centimeters, well under 1e-6 degrees.
func TestBoundingBoxMatchesFieldTool(t *testing.T) {
	tests := []struct {
		name                     string
		lat, lon                 float64
		south, west, north, east float64
	}{
		{
			name: "id_5345209",
			lat:  -17.146892667882046, lon: 27.1071721513814,
			south: -17.15141029504564, west: 27.1024730149089,
			north: -17.1423747110346, east: 27.1118710606301,
		},
		{
			name: "id_5200403",
			lat:  -16.15829617864069, lon: 28.18225451770237,
			south: -16.16281425251669, west: 28.17757942318091,
			north: -16.15377779511203, east: 28.18692939993126,
		},
	}
	const tol = 1e-6
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			minLat, minLon, maxLat, maxLon := BoundingBox(tc.lat, tc.lon, DefaultHalfSideKM)
			got := []float64{minLat, minLon, maxLat, maxLon}
			want := []float64{tc.south, tc.west, tc.north, tc.east}
			labels := []string{"south", "west", "north", "east"}
			for i := range got {
				if math.Abs(got[i]-want[i]) > tol {
					t.Errorf("%s = %.12f, want %.12f", labels[i], got[i], want[i])
				}
			}
		})
	}
}

func TestSurveyRingOrder(t *testing.T) {
	r := SurveyRing(-17.0, 27.0, DefaultHalfSideKM)
	if len(r) != 5 {
		t.Fatalf("ring has %d vertices, want 5", len(r))
	}
	sw, se, ne, nw := r[0], r[1], r[2], r[3]
	if se[0] <= sw[0] || se[1] != sw[1] {
		t.Errorf("SE %v not east of SW %v", se, sw)
	}
	if ne[1] <= se[1] || ne[0] != se[0] {
		t.Errorf("NE %v not north of SE %v", ne, se)
	}
	if nw[0] != sw[0] || nw[1] != ne[1] {
		t.Errorf("NW %v inconsistent with SW %v / NE %v", nw, sw, ne)
	}
	if r[4][0] != sw[0] || r[4][1] != sw[1] {
		t.Errorf("ring not closed: %v", r)
	}
}

func TestZeroHalfSideIsDegenerate(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(-17, 27, 0)
	if minLat != maxLat || minLon != maxLon {
		t.Errorf("zero half side produced non-degenerate box %v %v %v %v", minLat, minLon, maxLat, maxLon)
	}
}

func TestCRSProjectorCentralMeridian(t *testing.T) {
	p, err := NewCRSProjector(DefaultProjectedCRS)
	if err != nil {
		t.Fatalf("NewCRSProjector: %v", err)
	}
	defer p.Close()

	// 27°E is the central meridian of UTM zone 35.
	x, y, err := p.Project(27, -17)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if math.Abs(x-500000) > 1e-3 {
		t.Errorf("easting = %f, want 500000", x)
	}
	if y <= 0 || y >= 10000000 {
		t.Errorf("northing = %f, want within southern false-northing range", y)
	}
}

func square(x0, y0, side float64) []Ring {
	return []Ring{{
		{x0, y0}, {x0 + side, y0}, {x0 + side, y0 + side}, {x0, y0 + side}, {x0, y0},
	}}
}

func TestNewShapeClosesRings(t *testing.T) {
	open := []Ring{{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}
	g, err := NewShape([][]Ring{open})
	if err != nil {
		t.Fatalf("NewShape: %v", err)
	}
	area, err := Area(g)
	if err != nil {
		t.Fatalf("Area: %v", err)
	}
	if area != 16 {
		t.Errorf("area = %f, want 16", area)
	}
}

func TestNewShapeRejectsDegenerateRing(t *testing.T) {
	_, err := NewShape([][]Ring{{{{0, 0}, {1, 1}}}})
	if !errors.Is(err, ErrDegenerateRing) {
		t.Fatalf("err = %v, want ErrDegenerateRing", err)
	}
	if _, err := NewShape(nil); !errors.Is(err, ErrEmptyGeometry) {
		t.Fatalf("err = %v, want ErrEmptyGeometry", err)
	}
}

func TestRepairBowtie(t *testing.T) {
	bowtie := []Ring{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}
	g, err := NewShape([][]Ring{bowtie})
	if err != nil {
		t.Fatalf("NewShape: %v", err)
	}
	if InvalidReason(g) == "" {
		t.Fatal("bowtie reported valid")
	}
	fixed, repaired, err := Repair(g)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if !repaired {
		t.Error("repaired = false for bowtie")
	}
	if InvalidReason(fixed) != "" {
		t.Errorf("repaired geometry still invalid: %s", InvalidReason(fixed))
	}
	area, _ := Area(fixed)
	if math.Abs(area-2) > 1e-9 {
		t.Errorf("repaired area = %f, want 2", area)
	}
}

func TestUnionAndIntersection(t *testing.T) {
	a, _ := NewShape([][]Ring{square(0, 0, 2)})
	b, _ := NewShape([][]Ring{square(1, 0, 2)})
	frame, _ := NewShape([][]Ring{square(0, 0, 10)})

	u, err := Union([]*geos.Geom{a, b})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	area, _ := IntersectionArea(frame, u)
	if math.Abs(area-6) > 1e-9 {
		t.Errorf("union ∩ frame = %f, want 6", area)
	}

	far, _ := NewShape([][]Ring{square(50, 50, 1)})
	hit, err := Intersects(frame, far)
	if err != nil {
		t.Fatalf("Intersects: %v", err)
	}
	if hit {
		t.Error("disjoint squares reported intersecting")
	}
	if u, _ := Union(nil); u != nil {
		t.Error("Union(nil) != nil")
	}
}

// spiked is a 10x10 square whose top edge runs out to (5, 15) and back.
var spiked = []Ring{{{0, 0}, {10, 0}, {10, 10}, {5, 10}, {5, 15}, {5, 10}, {0, 10}, {0, 0}}}

func TestRepairDropsCollapsedSpike(t *testing.T) {
	g, err := NewShape([][]Ring{spiked})
	if err != nil {
		t.Fatalf("NewShape: %v", err)
	}
	fixed, repaired, err := Repair(g)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if !repaired {
		t.Error("repaired = false for spiked ring")
	}
	if id := fixed.TypeID(); id != geos.TypeIDPolygon && id != geos.TypeIDMultiPolygon {
		t.Errorf("repaired type = %v, want polygonal", id)
	}
	area, _ := Area(fixed)
	if math.Abs(area-100) > 1e-9 {
		t.Errorf("repaired area = %f, want 100", area)
	}

	frame, _ := NewShape([][]Ring{square(0, 0, 20)})
	u, err := Union([]*geos.Geom{fixed})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	covered, err := IntersectionArea(frame, u)
	if err != nil {
		t.Fatalf("IntersectionArea: %v", err)
	}
	if math.Abs(covered-100) > 1e-9 {
		t.Errorf("covered = %f, want 100", covered)
	}
}

func TestPolygonalDropsLinework(t *testing.T) {
	mixed, err := geos.NewGeomFromWKT("GEOMETRYCOLLECTION (POLYGON ((0 0, 4 0, 4 4, 0 4, 0 0)), LINESTRING (4 4, 9 9), POLYGON ((10 10, 12 10, 12 12, 10 12, 10 10)))")
	if err != nil {
		t.Fatal(err)
	}
	got := polygonal(mixed)
	if got == nil || got.TypeID() != geos.TypeIDMultiPolygon {
		t.Fatalf("polygonal = %v, want multipolygon", got)
	}
	if area, _ := Area(got); math.Abs(area-20) > 1e-9 {
		t.Errorf("area = %f, want 20", area)
	}

	line, _ := geos.NewGeomFromWKT("LINESTRING (0 0, 1 1)")
	if polygonal(line) != nil {
		t.Error("linestring kept as polygonal")
	}
}

func TestUnionDissolvesMultiPolygons(t *testing.T) {
	multi, err := NewShape([][]Ring{square(0, 0, 2), square(5, 5, 2)})
	if err != nil {
		t.Fatalf("NewShape: %v", err)
	}
	single, _ := NewShape([][]Ring{square(1, 1, 2)})

	u, err := Union([]*geos.Geom{multi, single})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	if area, _ := Area(u); math.Abs(area-11) > 1e-9 {
		t.Errorf("union area = %f, want 11", area)
	}
	// Inputs stay usable.
	if area, _ := Area(multi); math.Abs(area-8) > 1e-9 {
		t.Errorf("input area = %f, want 8", area)
	}
}
