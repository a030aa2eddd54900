package merge

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// runNamespace scopes run ids; changing it changes every id.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("survey-merge/runs"))

func v5(ns uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(name))
}

// RunID derives a stable id from the survey file name, the input
// fingerprints and the merge settings, so re-running identical inputs with
// identical settings yields the same id.
func RunID(cfg Config, fingerprints map[string]string) uuid.UUID {
	digests := make([]string, 0, len(fingerprints))
	for _, d := range fingerprints {
		digests = append(digests, d)
	}
	sort.Strings(digests)
	name := fmt.Sprintf("run:%s:%s:cutoff=%d:half=%g:crs=%s:strict=%t",
		filepath.Base(cfg.SurveyPath),
		strings.Join(digests, ","),
		cfg.CertaintyCutoff,
		cfg.HalfSideKM,
		cfg.ProjectedCRS,
		cfg.StrictLegacyKeys,
	)
	return v5(runNamespace, name)
}
