package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/smallholder-irrigation/survey-merge/internal/geometry"
	"github.com/smallholder-irrigation/survey-merge/internal/polygons"
	"github.com/smallholder-irrigation/survey-merge/internal/reconcile"
	"github.com/smallholder-irrigation/survey-merge/internal/survey"
)

// Result is the outcome of merging one survey file with its polygons.
type Result struct {
	RunID           uuid.UUID
	SurveyPath      string
	PolygonsPath    string
	SourceFile      string
	CertaintyCutoff int

	// Header is the merged-table header; Rows follow survey order.
	Header []string
	Rows   []Row

	// Issues are in report order: per-row findings first, then the
	// unmatched-polygon sweep.
	Issues []reconcile.Issue

	PolygonCount int
	Unmatched    int

	MergedPath   string
	ReportPath   string
	Fingerprints map[string]string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Report returns the report lines of the run.
func (r *Result) Report() []string {
	return reconcile.ReportLines(r.Issues)
}

// Records renders the merged-table body.
func (r *Result) Records() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Cells(r.SourceFile)
	}
	return out
}

// Run merges a survey file with its polygon annotations and writes the
// merged table, the report and their metadata sidecars.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	res, err := Merge(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Write(res, cfg.MergedDirName); err != nil {
		return nil, err
	}
	return res, nil
}

// Merge performs the reconciliation without touching the filesystem
// beyond reading the inputs.
func Merge(ctx context.Context, cfg Config) (*Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	started := time.Now()

	fingerprints := make(map[string]string, 2)
	for _, p := range []string{cfg.SurveyPath, cfg.PolygonsPath} {
		d, err := Fingerprint(p)
		if err != nil {
			return nil, err
		}
		fingerprints[p] = d
	}

	t := time.Now()
	table, err := survey.ParseCSV(cfg.SurveyPath)
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w", cfg.SurveyPath, err)
	}
	LogLoad("survey rows", cfg.SurveyPath, len(table.Records), time.Since(t))

	t = time.Now()
	collection, err := polygons.LoadGeoJSON(cfg.PolygonsPath)
	if err != nil {
		return nil, fmt.Errorf("polygons %s: %w", cfg.PolygonsPath, err)
	}
	LogLoad("polygons", cfg.PolygonsPath, len(collection.Annotations), time.Since(t))

	projector := cfg.Projector
	if projector == nil {
		p, err := geometry.NewCRSProjector(cfg.ProjectedCRS)
		if err != nil {
			return nil, err
		}
		defer p.Close()
		projector = p
	}

	for i := range table.Records {
		table.Records[i].BuildFootprint(cfg.HalfSideKM)
	}

	res := &Result{
		RunID:           RunID(cfg, fingerprints),
		SurveyPath:      cfg.SurveyPath,
		PolygonsPath:    cfg.PolygonsPath,
		SourceFile:      SourceFile(cfg.SurveyPath),
		CertaintyCutoff: cfg.CertaintyCutoff,
		Header:          MergedHeader(table.Header),
		Rows:            make([]Row, 0, len(table.Records)),
		PolygonCount:    len(collection.Annotations),
		Fingerprints:    fingerprints,
		StartedAt:       started,
	}

	index := reconcile.NewIndex(collection)
	calc := &reconcile.Calculator{Projector: projector, CertaintyCutoff: cfg.CertaintyCutoff}

	for i, rec := range table.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rowIssues []reconcile.Issue
		legacyID, err := survey.LegacyKey(rec.SiteID)
		legacy := &legacyID
		if err != nil {
			var lk *survey.LegacyKeyError
			if cfg.StrictLegacyKeys || !errors.As(err, &lk) {
				return nil, fmt.Errorf("survey %s row %d: %w", cfg.SurveyPath, i, err)
			}
			LogWarning("row %d: %v; matching on internal_id only", i, err)
			rowIssues = append(rowIssues, reconcile.Issue{
				Kind:    reconcile.KindLegacyKey,
				Row:     i,
				Polygon: reconcile.NoIndex,
				Message: fmt.Sprintf("Row %d (internal_id %d, %s): site_id %q has no numeric suffix; matched on internal_id only.",
					i, rec.InternalID, rec.Date(), rec.SiteID),
			})
			legacy = nil
		}

		matches := index.Match(rec, legacy)
		rowIssues = append(rowIssues, reconcile.CheckConsistency(i, rec, matches)...)
		if len(matches) > 0 {
			index.Claim(rec.SiteID, matches)
		}

		cov, covIssues := calc.Compute(i, rec, matches)
		rowIssues = append(rowIssues, covIssues...)

		res.Rows = append(res.Rows, Row{Index: i, Record: rec, Coverage: cov})
		res.Issues = append(res.Issues, rowIssues...)
		LogRow(i, rec.InternalID, len(matches), len(rowIssues))
	}

	unmatched := index.Unmatched()
	for _, pi := range unmatched {
		a := index.Annotation(pi)
		res.Issues = append(res.Issues, reconcile.Issue{
			Kind:    reconcile.KindUnmatchedPolygon,
			Row:     reconcile.NoIndex,
			Polygon: pi,
			Message: fmt.Sprintf("Polygon %d (internal_id %d, %s) has no matching survey row.", pi, a.InternalID, a.Date()),
		})
	}
	res.Unmatched = len(unmatched)
	res.FinishedAt = time.Now()

	LogRunSummary(res, res.FinishedAt.Sub(started))
	return res, nil
}

// Write persists the merged table, the report and their metadata sidecars
// under the merged folder derived from the survey path.
func Write(res *Result, mergedDir string) error {
	dir, mergedPath, reportPath := OutputPaths(res.SurveyPath, mergedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	if err := WriteReport(reportPath, res.Report()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := WriteMerged(mergedPath, res.Header, res.Records()); err != nil {
		return fmt.Errorf("write merged table: %w", err)
	}
	res.MergedPath, res.ReportPath = mergedPath, reportPath

	if err := WriteMetadata(reportPath, "Consistency report for "+res.SourceFile, res); err != nil {
		return err
	}
	if err := WriteMetadata(mergedPath, "Survey rows merged with polygon coverage for "+res.SourceFile, res); err != nil {
		return err
	}
	return nil
}
