package geometry

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geos"
)

var (
	ErrEmptyGeometry  = errors.New("geometry has no polygons")
	ErrDegenerateRing = errors.New("ring has fewer than four vertices")
	ErrBeyondRepair   = errors.New("geometry could not be repaired")
)

// Guard runs fn and turns a GEOS panic into an error. go-geos panics on
// library faults (topology exceptions, illegal arguments).
func Guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("geos: %v", r)
		}
	}()
	fn()
	return nil
}

// NewShape builds a GEOS polygon or multipolygon. Open rings are closed before
// construction; the result may still be invalid (self-intersections etc).
func NewShape(polys [][]Ring) (*geos.Geom, error) {
	if len(polys) == 0 {
		return nil, ErrEmptyGeometry
	}
	coords := make([][][][]float64, 0, len(polys))
	for i, rings := range polys {
		c, err := closedRings(rings)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		coords = append(coords, c)
	}

	var g *geos.Geom
	err := Guard(func() {
		if len(coords) == 1 {
			g = geos.NewPolygon(coords[0])
			return
		}
		parts := make([]*geos.Geom, len(coords))
		for i, c := range coords {
			parts[i] = geos.NewPolygon(c)
		}
		g = geos.NewCollection(geos.TypeIDMultiPolygon, parts)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func closedRings(rings []Ring) ([][][]float64, error) {
	if len(rings) == 0 {
		return nil, ErrEmptyGeometry
	}
	out := make([][][]float64, len(rings))
	for i, r := range rings {
		ring := make([][]float64, 0, len(r)+1)
		for _, pt := range r {
			if len(pt) < 2 {
				return nil, fmt.Errorf("ring %d: vertex with %d ordinates", i, len(pt))
			}
			ring = append(ring, []float64{pt[0], pt[1]})
		}
		if n := len(ring); n > 0 && (ring[0][0] != ring[n-1][0] || ring[0][1] != ring[n-1][1]) {
			ring = append(ring, []float64{ring[0][0], ring[0][1]})
		}
		if len(ring) < 4 {
			return nil, fmt.Errorf("ring %d: %w", i, ErrDegenerateRing)
		}
		out[i] = ring
	}
	return out, nil
}

// Repair returns a valid, purely polygonal version of g and whether a repair
// was needed. Parts that collapse to lines or points during repair (spikes,
// zero-width slivers) are dropped.
func Repair(g *geos.Geom) (*geos.Geom, bool, error) {
	var (
		out      *geos.Geom
		repaired bool
	)
	err := Guard(func() {
		if g.IsValid() {
			out = g
			return
		}
		repaired = true
		out = polygonal(g.MakeValidWithParams(geos.MakeValidStructure, geos.MakeValidDiscardCollapsed))
		if out != nil && out.IsEmpty() {
			out = nil
		}
	})
	if err != nil {
		return nil, repaired, err
	}
	if out == nil {
		return nil, repaired, ErrBeyondRepair
	}
	return out, repaired, nil
}

// polygonal keeps the areal parts of g. It returns nil when none are left.
func polygonal(g *geos.Geom) *geos.Geom {
	if g == nil {
		return nil
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		return g
	}
	var parts []*geos.Geom
	collectPolygons(g, &parts)
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return geos.NewCollection(geos.TypeIDMultiPolygon, parts)
}

func collectPolygons(g *geos.Geom, parts *[]*geos.Geom) {
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		*parts = append(*parts, g.Clone())
	case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		for i := 0; i < g.NumGeometries(); i++ {
			collectPolygons(g.Geometry(i), parts)
		}
	}
}

// InvalidReason describes why g is invalid, or "" when it is valid.
func InvalidReason(g *geos.Geom) string {
	var reason string
	_ = Guard(func() {
		if !g.IsValid() {
			reason = g.IsValidReason()
		}
	})
	return reason
}

// Union dissolves all geometries into one in a single pass. An empty input
// yields nil. The inputs are left untouched.
func Union(geoms []*geos.Geom) (*geos.Geom, error) {
	if len(geoms) == 0 {
		return nil, nil
	}
	var out *geos.Geom
	err := Guard(func() {
		parts := make([]*geos.Geom, len(geoms))
		for i, g := range geoms {
			parts[i] = g.Clone()
		}
		out = geos.NewCollection(geos.TypeIDGeometryCollection, parts).UnaryUnion()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Area returns the planar area of g in squared CRS units.
func Area(g *geos.Geom) (float64, error) {
	if g == nil {
		return 0, nil
	}
	var area float64
	err := Guard(func() {
		area = g.Area()
	})
	return area, err
}

// IntersectionArea returns area(a ∩ b).
func IntersectionArea(a, b *geos.Geom) (float64, error) {
	if a == nil || b == nil {
		return 0, nil
	}
	var area float64
	err := Guard(func() {
		inter := a.Intersection(b)
		if inter == nil || inter.IsEmpty() {
			return
		}
		area = inter.Area()
	})
	return area, err
}

// Intersects reports whether a and b share at least one point.
func Intersects(a, b *geos.Geom) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}
	var hit bool
	err := Guard(func() {
		hit = a.Intersects(b)
	})
	return hit, err
}
