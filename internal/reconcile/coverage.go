package reconcile

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geos"

	"github.com/smallholder-irrigation/survey-merge/internal/geometry"
	"github.com/smallholder-irrigation/survey-merge/internal/survey"
)

// DefaultCertaintyCutoff is the lowest certainty counted as high-certainty.
const DefaultCertaintyCutoff = 3

// Coverage holds the per-row statistics appended to the survey table.
// Percentages are in [0, 100]; sizes are in square meters and nil when the
// respective polygon subset is empty.
type Coverage struct {
	PercentCoverage   float64
	PercentCoverageHC float64
	PolyAvgSize       *float64
	PolyAvgSizeHC     *float64
	PolyMinSize       *float64
	PolyMinSizeHC     *float64

	// CategoryHC maps every entry of Categories to its high-certainty
	// coverage percentage.
	CategoryHC map[string]float64
}

// NewCoverage returns the result for a row without usable polygons.
func NewCoverage() Coverage {
	c := Coverage{CategoryHC: make(map[string]float64, len(Categories))}
	for _, cat := range Categories {
		c.CategoryHC[cat] = 0
	}
	return c
}

// Calculator measures how much of a survey footprint matched polygons cover.
// Geometry is projected before any measurement so areas come out in meters.
type Calculator struct {
	Projector       geometry.Projector
	CertaintyCutoff int
}

type measuredPolygon struct {
	Match
	shape *geos.Geom
	area  float64
}

// Compute returns the coverage for one row along with any overlap or
// geometry issues. It never panics; GEOS faults turn into a
// KindCoverageSkipped issue and a default Coverage.
func (c *Calculator) Compute(row int, rec survey.Record, matches []Match) (Coverage, []Issue) {
	cov := NewCoverage()
	if len(matches) == 0 {
		return cov, nil
	}

	skip := func(err error) (Coverage, []Issue) {
		return NewCoverage(), []Issue{{
			Kind:    KindCoverageSkipped,
			Row:     row,
			Polygon: NoIndex,
			Message: fmt.Sprintf("Row %d (internal_id %d, %s): coverage skipped: %v", row, rec.InternalID, rec.Date(), err),
		}}
	}

	fpRing, err := geometry.ProjectRing(c.Projector, rec.Footprint)
	if err != nil {
		return skip(fmt.Errorf("survey footprint: %w", err))
	}
	footprint, err := geometry.NewShape([][]geometry.Ring{{fpRing}})
	if err != nil {
		return skip(fmt.Errorf("survey footprint: %w", err))
	}
	fpArea, err := geometry.Area(footprint)
	if err != nil {
		return skip(fmt.Errorf("survey footprint: %w", err))
	}

	measured := make([]measuredPolygon, 0, len(matches))
	for _, m := range matches {
		shape, err := c.shape(m)
		if err != nil {
			return skip(fmt.Errorf("polygon %d: %w", m.Index, err))
		}
		area, err := geometry.Area(shape)
		if err != nil {
			return skip(fmt.Errorf("polygon %d: %w", m.Index, err))
		}
		measured = append(measured, measuredPolygon{Match: m, shape: shape, area: area})
	}

	var issues []Issue
	for _, mp := range measured {
		hit, err := geometry.Intersects(footprint, mp.shape)
		if err != nil {
			return skip(fmt.Errorf("polygon %d: %w", mp.Index, err))
		}
		if !hit {
			issues = append(issues, Issue{
				Kind:    KindNoOverlap,
				Row:     row,
				Polygon: mp.Index,
				Message: fmt.Sprintf("Polygon %d (internal_id %d, %s) does not overlap the survey area.", mp.Index, mp.InternalID, mp.Date()),
			})
		}
	}

	cov.PolyAvgSize, cov.PolyMinSize = sizeStats(measured)
	if cov.PercentCoverage, err = percent(footprint, fpArea, measured); err != nil {
		skipped, skipIssues := skip(err)
		return skipped, append(issues, skipIssues...)
	}

	high := filter(measured, func(mp measuredPolygon) bool { return mp.Certainty >= c.CertaintyCutoff })
	if len(high) == 0 {
		return cov, issues
	}
	cov.PolyAvgSizeHC, cov.PolyMinSizeHC = sizeStats(high)
	if cov.PercentCoverageHC, err = percent(footprint, fpArea, high); err != nil {
		skipped, skipIssues := skip(err)
		return skipped, append(issues, skipIssues...)
	}

	for _, cat := range Categories {
		subset := filter(high, func(mp measuredPolygon) bool { return HasCategory(mp.SpecialCategory, cat) })
		pct, err := percent(footprint, fpArea, subset)
		if err != nil {
			skipped, skipIssues := skip(err)
			return skipped, append(issues, skipIssues...)
		}
		cov.CategoryHC[cat] = pct
	}
	return cov, issues
}

// shape projects and repairs a matched polygon.
func (c *Calculator) shape(m Match) (*geos.Geom, error) {
	projected, err := geometry.ProjectPolygons(c.Projector, m.Polygons)
	if err != nil {
		return nil, err
	}
	raw, err := geometry.NewShape(projected)
	if err != nil {
		return nil, err
	}
	fixed, _, err := geometry.Repair(raw)
	if err != nil {
		return nil, err
	}
	return fixed, nil
}

// percent returns area(footprint ∩ union(subset)) / area(footprint) * 100.
func percent(footprint *geos.Geom, fpArea float64, subset []measuredPolygon) (float64, error) {
	if fpArea <= 0 || len(subset) == 0 {
		return 0, nil
	}
	shapes := make([]*geos.Geom, len(subset))
	for i, mp := range subset {
		shapes[i] = mp.shape
	}
	union, err := geometry.Union(shapes)
	if err != nil {
		return 0, err
	}
	covered, err := geometry.IntersectionArea(footprint, union)
	if err != nil {
		return 0, err
	}
	return math.Min(covered/fpArea*100, 100), nil
}

func sizeStats(subset []measuredPolygon) (avgSize, minSize *float64) {
	if len(subset) == 0 {
		return nil, nil
	}
	sum, lo := 0.0, math.Inf(1)
	for _, mp := range subset {
		sum += mp.area
		lo = math.Min(lo, mp.area)
	}
	mean := sum / float64(len(subset))
	return &mean, &lo
}

func filter(in []measuredPolygon, keep func(measuredPolygon) bool) []measuredPolygon {
	var out []measuredPolygon
	for _, mp := range in {
		if keep(mp) {
			out = append(out, mp)
		}
	}
	return out
}
