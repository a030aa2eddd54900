package merge

import (
	"log"
	"time"
)

// LogLoad logs an input file being read.
func LogLoad(kind, path string, count int, duration time.Duration) {
	log.Printf("[merge] loaded %d %s from %s in %dms", count, kind, path, duration.Milliseconds())
}

// LogRow logs the outcome of one survey row.
func LogRow(row, internalID, matches, issues int) {
	log.Printf("[merge] row %d internal_id=%d matches=%d issues=%d", row, internalID, matches, issues)
}

// LogWarning logs a recoverable data problem.
func LogWarning(format string, args ...any) {
	log.Printf("[merge] warning: "+format, args...)
}

// LogRunSummary logs the totals of a finished run.
func LogRunSummary(r *Result, duration time.Duration) {
	log.Printf("[merge] processed %d rows against %d polygons (%d unmatched), %d issues in %dms run=%s",
		len(r.Rows), r.PolygonCount, r.Unmatched, len(r.Issues), duration.Milliseconds(), r.RunID)
}

// LogError logs a failed operation.
func LogError(operation string, err error) {
	log.Printf("[merge] %s error: %v", operation, err)
}
