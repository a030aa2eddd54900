package reconcile

// Kind classifies a report line.
type Kind string

const (
	KindFalsePositive     Kind = "false_positive"
	KindMissingPolygons   Kind = "missing_polygons"
	KindMissingCertain    Kind = "missing_certain_polygon"
	KindUnexpectedCertain Kind = "unexpected_certain_polygon"
	KindNoOverlap         Kind = "no_overlap"
	KindCoverageSkipped   Kind = "coverage_skipped"
	KindLegacyKey         Kind = "legacy_key"
	KindUnmatchedPolygon  Kind = "unmatched_polygon"
)

// NoIndex marks an Issue field that does not apply.
const NoIndex = -1

// Issue is one data-quality finding. Row and Polygon are 0-based table
// positions, NoIndex when not applicable.
type Issue struct {
	Kind    Kind
	Row     int
	Polygon int
	Message string
}

// AllChecksPassed is the single report line written when a run has no issues.
const AllChecksPassed = "All checks passed successfully."

// ReportLines renders issues as report lines, falling back to the
// AllChecksPassed sentinel.
func ReportLines(issues []Issue) []string {
	if len(issues) == 0 {
		return []string{AllChecksPassed}
	}
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.Message
	}
	return lines
}
