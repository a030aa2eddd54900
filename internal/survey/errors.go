package survey

import "fmt"

// RowError reports a malformed cell. Row is the 1-based CSV line number.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// LegacyKeyError means a site_id carries no numeric suffix after its
// three-character prefix (e.g. "id_5345209" -> 5345209).
type LegacyKeyError struct {
	SiteID string
	Reason string
}

func (e *LegacyKeyError) Error() string {
	return fmt.Sprintf("site_id %q has no legacy numeric suffix: %s", e.SiteID, e.Reason)
}
