package geometry

import (
	"fmt"

	"github.com/twpayne/go-proj/v10"
)

// DefaultProjectedCRS is the UTM zone covering the surveyed region (zone 35S).
const DefaultProjectedCRS = "EPSG:32735"

// Projector maps geographic (lon, lat) coordinates into a projected CRS
// measured in meters.
type Projector interface {
	Project(lon, lat float64) (x, y float64, err error)
}

// CRSProjector projects WGS84 coordinates into a target CRS with PROJ.
// A CRSProjector is not safe for concurrent use.
type CRSProjector struct {
	crs string
	pj  *proj.PJ
}

// NewCRSProjector creates a projector from EPSG:4326 into crs. Axis order is
// normalized so callers always pass (lon, lat).
func NewCRSProjector(crs string) (*CRSProjector, error) {
	pj, err := proj.NewCRSToCRS("EPSG:4326", crs, nil)
	if err != nil {
		return nil, fmt.Errorf("create transformation to %s: %w", crs, err)
	}
	normalized, err := pj.NormalizeForVisualization()
	pj.Destroy()
	if err != nil {
		return nil, fmt.Errorf("normalize axis order for %s: %w", crs, err)
	}
	return &CRSProjector{crs: crs, pj: normalized}, nil
}

// CRS returns the target CRS identifier.
func (p *CRSProjector) CRS() string { return p.crs }

// Project implements Projector.
func (p *CRSProjector) Project(lon, lat float64) (float64, float64, error) {
	out, err := p.pj.Forward(proj.NewCoord(lon, lat, 0, 0))
	if err != nil {
		return 0, 0, fmt.Errorf("project (%f, %f) to %s: %w", lon, lat, p.crs, err)
	}
	return out[0], out[1], nil
}

// Close releases the underlying PROJ object.
func (p *CRSProjector) Close() {
	if p.pj != nil {
		p.pj.Destroy()
		p.pj = nil
	}
}

// ProjectRing projects every vertex of r.
func ProjectRing(p Projector, r Ring) (Ring, error) {
	out := make(Ring, len(r))
	for i, pt := range r {
		if len(pt) < 2 {
			return nil, fmt.Errorf("vertex %d has %d ordinates", i, len(pt))
		}
		x, y, err := p.Project(pt[0], pt[1])
		if err != nil {
			return nil, err
		}
		out[i] = []float64{x, y}
	}
	return out, nil
}

// ProjectPolygons projects a list of polygons, each a list of rings with the
// exterior first.
func ProjectPolygons(p Projector, polys [][]Ring) ([][]Ring, error) {
	out := make([][]Ring, len(polys))
	for i, rings := range polys {
		out[i] = make([]Ring, len(rings))
		for j, r := range rings {
			projected, err := ProjectRing(p, r)
			if err != nil {
				return nil, fmt.Errorf("polygon %d ring %d: %w", i, j, err)
			}
			out[i][j] = projected
		}
	}
	return out, nil
}
