package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
)

// Categories are the special_category keywords reported separately. A polygon
// whose text mentions several keywords counts towards each of them.
var Categories = []string{"plantation", "industrial", "lawn", "covered"}

// HasCategory reports whether text mentions keyword, ignoring case.
func HasCategory(text, keyword string) bool {
	if text == "" || keyword == "" {
		return false
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(text), fold.String(keyword))
}
