package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/smallholder-irrigation/survey-merge/internal/geometry"
	"github.com/smallholder-irrigation/survey-merge/internal/reconcile"
)

var (
	ErrMissingSurveyPath = errors.New("survey path is required")
	ErrInvalidCutoff     = errors.New("certainty_cutoff must be between 1 and 5")
	ErrInvalidHalfSide   = errors.New("footprint_half_side_km must be positive")
	ErrMissingCRS        = errors.New("projected_crs is required")
	ErrMissingMergedDir  = errors.New("merged_dir_name is required")
)

// Config holds merge and server settings.
type Config struct {
	// CertaintyCutoff is the minimum polygon certainty counted as high-certainty.
	CertaintyCutoff int `yaml:"certainty_cutoff"`

	// HalfSideKM is the distance from a survey point to each side of its footprint.
	HalfSideKM float64 `yaml:"footprint_half_side_km"`

	// ProjectedCRS is used for every area measurement.
	ProjectedCRS string `yaml:"projected_crs"`

	// MergedDirName is the output folder created next to the survey's parent folder.
	MergedDirName string `yaml:"merged_dir_name"`

	// StrictLegacyKeys fails a file when a site_id has no numeric suffix
	// instead of matching that row on internal_id only.
	StrictLegacyKeys bool `yaml:"strict_legacy_keys"`

	// DataRoot resolves relative paths submitted to the HTTP API.
	DataRoot string `yaml:"server_data_root"`

	DatabaseURL        string `yaml:"database_url"`
	Port               string `yaml:"port"`
	RateLimitPerMinute int    `yaml:"api_rate_per_minute"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		CertaintyCutoff:    reconcile.DefaultCertaintyCutoff,
		HalfSideKM:         geometry.DefaultHalfSideKM,
		ProjectedCRS:       geometry.DefaultProjectedCRS,
		MergedDirName:      "merged",
		Port:               "5050",
		RateLimitPerMinute: 30,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins). A missing file
// at path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg = LoadFromEnv(cfg)
	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML document at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv overrides base with environment variables.
//
// Environment variables:
//   - CERTAINTY_CUTOFF: minimum high-certainty polygon certainty (default: 3)
//   - FOOTPRINT_HALF_SIDE_KM: half side of the survey square (default: 0.5)
//   - PROJECTED_CRS: CRS for area measurements (default: EPSG:32735)
//   - MERGED_DIR_NAME: output folder name (default: merged)
//   - STRICT_LEGACY_KEYS: "true" to fail files with non-numeric site_id suffixes
//   - SERVER_DATA_ROOT: base folder for relative API paths
//   - DATABASE_URL: Postgres DSN; runs are persisted when set
//   - PORT: HTTP port (default: 5050)
//   - API_RATE_PER_MINUTE: merge requests allowed per minute (default: 30)
func LoadFromEnv(base Config) Config {
	cfg := base
	if v, ok := envInt("CERTAINTY_CUTOFF"); ok {
		cfg.CertaintyCutoff = v
	}
	if v, ok := envFloat("FOOTPRINT_HALF_SIDE_KM"); ok {
		cfg.HalfSideKM = v
	}
	if v := strings.TrimSpace(os.Getenv("PROJECTED_CRS")); v != "" {
		cfg.ProjectedCRS = v
	}
	if v := strings.TrimSpace(os.Getenv("MERGED_DIR_NAME")); v != "" {
		cfg.MergedDirName = v
	}
	if v := strings.TrimSpace(os.Getenv("STRICT_LEGACY_KEYS")); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("[config] ignoring STRICT_LEGACY_KEYS=%q: %v", v, err)
		} else {
			cfg.StrictLegacyKeys = strict
		}
	}
	if v := strings.TrimSpace(os.Getenv("SERVER_DATA_ROOT")); v != "" {
		cfg.DataRoot = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v, ok := envInt("API_RATE_PER_MINUTE"); ok {
		cfg.RateLimitPerMinute = v
	}
	return cfg
}

// Validate checks the merge settings.
func (c Config) Validate() error {
	if c.CertaintyCutoff < 1 || c.CertaintyCutoff > 5 {
		return ErrInvalidCutoff
	}
	if c.HalfSideKM <= 0 {
		return ErrInvalidHalfSide
	}
	if strings.TrimSpace(c.ProjectedCRS) == "" {
		return ErrMissingCRS
	}
	if strings.TrimSpace(c.MergedDirName) == "" {
		return ErrMissingMergedDir
	}
	return nil
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] ignoring %s=%q: %v", key, v, err)
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] ignoring %s=%q: %v", key, v, err)
		return 0, false
	}
	return f, true
}
