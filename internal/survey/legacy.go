package survey

import (
	"strconv"
	"strings"
)

const legacyPrefixLen = 3

// LegacyKey returns the numeric suffix of siteID after its three-character
// prefix. Some polygons were tagged with this number instead of the survey's
// internal_id.
func LegacyKey(siteID string) (int, error) {
	if len(siteID) <= legacyPrefixLen {
		return 0, &LegacyKeyError{SiteID: siteID, Reason: "shorter than prefix"}
	}
	suffix := strings.TrimSpace(siteID[legacyPrefixLen:])
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, &LegacyKeyError{SiteID: siteID, Reason: "suffix " + strconv.Quote(suffix) + " is not an integer"}
	}
	return n, nil
}
