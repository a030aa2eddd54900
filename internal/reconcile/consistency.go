package reconcile

import (
	"fmt"

	"github.com/smallholder-irrigation/survey-merge/internal/survey"
)

// CheckConsistency compares a row's irrigation label with the certainty of
// its matched polygons. Every rule is evaluated independently, so one row can
// yield several issues.
func CheckConsistency(row int, rec survey.Record, matches []Match) []Issue {
	var issues []Issue
	add := func(kind Kind, format string, args ...any) {
		prefix := fmt.Sprintf("Row %d (internal_id %d, %s): ", row, rec.InternalID, rec.Date())
		issues = append(issues, Issue{
			Kind:    kind,
			Row:     row,
			Polygon: NoIndex,
			Message: prefix + fmt.Sprintf(format, args...),
		})
	}

	label := rec.Irrigation
	maxCertainty := maxCertainty(matches)

	if label == 1 && len(matches) > 0 {
		add(KindFalsePositive, "survey marked irrigation as 1 (no irrigation) but found %d matching polygon(s).", len(matches))
	}
	if label > 1 && len(matches) == 0 {
		add(KindMissingPolygons, "survey marked irrigation %d (possible irrigation) but no matching polygons found.", label)
	}
	if label == 5 && (len(matches) == 0 || maxCertainty < 5) {
		add(KindMissingCertain, "survey marked irrigation 5 (definitely irrigation) but no polygon with certainty 5 found.")
	}
	if label >= 2 && label <= 4 && len(matches) > 0 && maxCertainty > 4 {
		add(KindUnexpectedCertain, "survey marked irrigation %d (uncertain) but found a polygon with certainty 5 (certain).", label)
	}
	return issues
}

func maxCertainty(matches []Match) int {
	best := 0
	for _, m := range matches {
		if m.Certainty > best {
			best = m.Certainty
		}
	}
	return best
}
