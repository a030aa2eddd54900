package survey

import (
	"fmt"

	"github.com/smallholder-irrigation/survey-merge/internal/geometry"
)

// Record is one survey row: a site inspected on one date, with the
// irrigation label the surveyor assigned.
type Record struct {
	InternalID int     `validate:"gte=0"`
	SiteID     string  `validate:"max=64"`
	Year       int     `validate:"gte=1900,lte=2100"`
	Month      int     `validate:"gte=1,lte=12"`
	Day        int     `validate:"gte=1,lte=31"`
	Irrigation int     `validate:"gte=1,lte=5"`
	X          float64 `validate:"gte=-180,lte=180"`
	Y          float64 `validate:"gte=-90,lte=90"`

	// Footprint is the survey square in (lon, lat), set by BuildFootprint.
	Footprint geometry.Ring `validate:"-"`

	// Values holds the raw CSV cells aligned with Table.Header.
	Values []string `validate:"-"`
}

// Date formats the acquisition date as d/m/yyyy.
func (r Record) Date() string {
	return fmt.Sprintf("%d/%d/%d", r.Day, r.Month, r.Year)
}

// BuildFootprint sets the square footprint around the record's center.
func (r *Record) BuildFootprint(halfSideKM float64) {
	r.Footprint = geometry.SurveyRing(r.Y, r.X, halfSideKM)
}

// Table is a parsed survey CSV.
type Table struct {
	Path    string
	Header  []string
	Records []Record
}

// RequiredColumns lists the columns every survey CSV must carry.
var RequiredColumns = []string{
	"internal_id", "site_id", "year", "month", "day", "irrigation", "x", "y",
}
