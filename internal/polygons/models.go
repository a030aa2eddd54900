package polygons

import (
	"fmt"

	"github.com/smallholder-irrigation/survey-merge/internal/geometry"
)

// Annotation is a hand-drawn polygon marking (possible) irrigation at a site
// on one acquisition date.
type Annotation struct {
	InternalID      int    `validate:"gte=0"`
	Year            int    `validate:"gte=1900,lte=2100"`
	Month           int    `validate:"gte=1,lte=12"`
	Day             int    `validate:"gte=1,lte=31"`
	Certainty       int    `validate:"gte=1,lte=5"`
	SpecialCategory string `validate:"-"`

	// Polygons holds the footprint in (lon, lat); one entry per polygon of a
	// MultiPolygon, exterior ring first. Geometry may be invalid.
	Polygons [][]geometry.Ring `validate:"-"`

	// SiteID is empty until a survey row claims the annotation.
	SiteID string `validate:"-"`
}

// Date formats the acquisition date as d/m/yyyy.
func (a Annotation) Date() string {
	return fmt.Sprintf("%d/%d/%d", a.Day, a.Month, a.Year)
}

// Collection is a parsed polygon file, in file order.
type Collection struct {
	Path        string
	Annotations []Annotation
}

// ResetSiteIDs clears every match so a fresh merge can run.
func (c *Collection) ResetSiteIDs() {
	for i := range c.Annotations {
		c.Annotations[i].SiteID = ""
	}
}

// RequiredProperties lists the feature properties every polygon must carry.
var RequiredProperties = []string{"internal_id", "year", "month", "day", "certainty"}
