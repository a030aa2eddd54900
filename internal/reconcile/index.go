package reconcile

import (
	"github.com/smallholder-irrigation/survey-merge/internal/polygons"
	"github.com/smallholder-irrigation/survey-merge/internal/survey"
)

// Key identifies the annotations drawn for one site on one date.
type Key struct {
	InternalID int
	Year       int
	Month      int
	Day        int
}

// Match is an annotation selected for a survey row, with its position in the
// polygon collection.
type Match struct {
	Index int
	polygons.Annotation
}

// Index resolves survey rows to polygon annotations. It is built once per
// merge and owns the match state of the collection; it is not safe for
// concurrent Claim calls.
type Index struct {
	collection *polygons.Collection
	byKey      map[Key][]int
}

// NewIndex indexes c by (internal_id, year, month, day) and clears any
// previous matches.
func NewIndex(c *polygons.Collection) *Index {
	c.ResetSiteIDs()
	ix := &Index{collection: c, byKey: make(map[Key][]int, len(c.Annotations))}
	for i, a := range c.Annotations {
		k := Key{InternalID: a.InternalID, Year: a.Year, Month: a.Month, Day: a.Day}
		ix.byKey[k] = append(ix.byKey[k], i)
	}
	return ix
}

// Match returns the annotations sharing the record's date whose internal_id
// equals the record's internal_id or, when legacyID is non-nil, the legacy
// numeric suffix of its site_id. Results follow collection order.
func (ix *Index) Match(rec survey.Record, legacyID *int) []Match {
	primary := ix.byKey[Key{InternalID: rec.InternalID, Year: rec.Year, Month: rec.Month, Day: rec.Day}]
	var secondary []int
	if legacyID != nil && *legacyID != rec.InternalID {
		secondary = ix.byKey[Key{InternalID: *legacyID, Year: rec.Year, Month: rec.Month, Day: rec.Day}]
	}

	idxs := mergeSorted(primary, secondary)
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Match, len(idxs))
	for i, idx := range idxs {
		out[i] = Match{Index: idx, Annotation: ix.collection.Annotations[idx]}
	}
	return out
}

// Claim marks the matched annotations as belonging to siteID. A later claim
// on the same annotation overwrites the earlier one.
func (ix *Index) Claim(siteID string, matches []Match) {
	for _, m := range matches {
		ix.collection.Annotations[m.Index].SiteID = siteID
	}
}

// Unmatched returns the positions of annotations no row has claimed.
func (ix *Index) Unmatched() []int {
	var out []int
	for i, a := range ix.collection.Annotations {
		if a.SiteID == "" {
			out = append(out, i)
		}
	}
	return out
}

// Annotation returns the annotation at position i.
func (ix *Index) Annotation(i int) polygons.Annotation {
	return ix.collection.Annotations[i]
}

// mergeSorted merges two ascending index lists, dropping duplicates.
func mergeSorted(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i >= len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
