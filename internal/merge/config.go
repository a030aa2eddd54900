package merge

import (
	"strings"

	"github.com/smallholder-irrigation/survey-merge/internal/config"
	"github.com/smallholder-irrigation/survey-merge/internal/geometry"
)

// Config describes one merge run.
type Config struct {
	SurveyPath string

	// PolygonsPath defaults to SurveyPath with a .geojson extension.
	PolygonsPath string

	CertaintyCutoff int

	// HalfSideKM of zero selects the default 0.5 km; negative values are
	// rejected. Zero-area footprints are not configurable.
	HalfSideKM float64

	ProjectedCRS     string
	MergedDirName    string
	StrictLegacyKeys bool

	// Projector overrides the PROJ transformation built from ProjectedCRS.
	Projector geometry.Projector
}

// NewConfig builds a run configuration from service settings.
func NewConfig(s config.Config, surveyPath, polygonsPath string) Config {
	return Config{
		SurveyPath:       surveyPath,
		PolygonsPath:     polygonsPath,
		CertaintyCutoff:  s.CertaintyCutoff,
		HalfSideKM:       s.HalfSideKM,
		ProjectedCRS:     s.ProjectedCRS,
		MergedDirName:    s.MergedDirName,
		StrictLegacyKeys: s.StrictLegacyKeys,
	}
}

// withDefaults fills zero values and validates the result.
func (c Config) withDefaults() (Config, error) {
	if strings.TrimSpace(c.SurveyPath) == "" {
		return c, config.ErrMissingSurveyPath
	}
	def := config.Default()
	if c.PolygonsPath == "" {
		c.PolygonsPath = DefaultPolygonsPath(c.SurveyPath)
	}
	if c.CertaintyCutoff == 0 {
		c.CertaintyCutoff = def.CertaintyCutoff
	}
	if c.HalfSideKM == 0 {
		c.HalfSideKM = def.HalfSideKM
	}
	if c.ProjectedCRS == "" {
		c.ProjectedCRS = def.ProjectedCRS
	}
	if c.MergedDirName == "" {
		c.MergedDirName = def.MergedDirName
	}

	s := def
	s.CertaintyCutoff = c.CertaintyCutoff
	s.HalfSideKM = c.HalfSideKM
	s.ProjectedCRS = c.ProjectedCRS
	s.MergedDirName = c.MergedDirName
	return c, s.Validate()
}

// DefaultPolygonsPath swaps a trailing .csv for .geojson.
func DefaultPolygonsPath(surveyPath string) string {
	return strings.TrimSuffix(surveyPath, ".csv") + ".geojson"
}
