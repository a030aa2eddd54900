package store

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/smallholder-irrigation/survey-merge/internal/merge"
	"github.com/smallholder-irrigation/survey-merge/internal/reconcile"
)

// Schema holds every table of this package.
const Schema = "merge"

// Run is the summary of one merge.
type Run struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SurveyPath      string         `json:"survey_path"`
	PolygonsPath    string         `json:"polygons_path"`
	SourceFile      string         `gorm:"index" json:"source_file"`
	CertaintyCutoff int            `json:"certainty_cutoff"`
	Header          pq.StringArray `gorm:"type:text[]" json:"header"`
	Fingerprints    pq.StringArray `gorm:"type:text[]" json:"fingerprints"`
	RowCount        int            `json:"row_count"`
	PolygonCount    int            `json:"polygon_count"`
	UnmatchedCount  int            `json:"unmatched_count"`
	IssueCount      int            `json:"issue_count"`
	MergedPath      string         `json:"merged_path"`
	ReportPath      string         `json:"report_path"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	CreatedAt       time.Time      `json:"created_at"`
}

// RunRow is one merged survey row. CategoryHC follows reconcile.Categories.
type RunRow struct {
	RunID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	RowIndex          int             `gorm:"primaryKey;autoIncrement:false" json:"row"`
	InternalID        int             `json:"internal_id"`
	SiteID            string          `json:"site_id"`
	Irrigation        int             `json:"irrigation"`
	PercentCoverage   float64         `json:"percent_coverage"`
	PercentCoverageHC float64         `json:"percent_coverage_hc"`
	PolyAvgSize       *float64        `json:"poly_avg_size"`
	PolyAvgSizeHC     *float64        `json:"poly_avg_size_hc"`
	PolyMinSize       *float64        `json:"poly_min_size"`
	PolyMinSizeHC     *float64        `json:"poly_min_size_hc"`
	CategoryHC        pq.Float64Array `gorm:"type:double precision[]" json:"percent_coverage_hc_categories"`
	Cells             pq.StringArray  `gorm:"type:text[]" json:"cells"`
}

// RunIssue is one report line. RowIndex and PolygonIndex are nil when the
// issue does not refer to a row or polygon.
type RunIssue struct {
	RunID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Seq          int       `gorm:"primaryKey;autoIncrement:false" json:"seq"`
	Kind         string    `gorm:"index" json:"kind"`
	RowIndex     *int      `json:"row,omitempty"`
	PolygonIndex *int      `json:"polygon,omitempty"`
	Message      string    `json:"message"`
}

func (Run) TableName() string      { return Schema + ".runs" }
func (RunRow) TableName() string   { return Schema + ".run_rows" }
func (RunIssue) TableName() string { return Schema + ".run_issues" }

// NewRun summarizes res.
func NewRun(res *merge.Result) Run {
	fps := make([]string, 0, len(res.Fingerprints))
	for path, digest := range res.Fingerprints {
		fps = append(fps, path+"="+digest)
	}
	sort.Strings(fps)

	return Run{
		ID:              res.RunID,
		SurveyPath:      res.SurveyPath,
		PolygonsPath:    res.PolygonsPath,
		SourceFile:      res.SourceFile,
		CertaintyCutoff: res.CertaintyCutoff,
		Header:          pq.StringArray(res.Header),
		Fingerprints:    fps,
		RowCount:        len(res.Rows),
		PolygonCount:    res.PolygonCount,
		UnmatchedCount:  res.Unmatched,
		IssueCount:      len(res.Issues),
		MergedPath:      res.MergedPath,
		ReportPath:      res.ReportPath,
		StartedAt:       res.StartedAt,
		FinishedAt:      res.FinishedAt,
	}
}

// NewRunRows converts the merged rows of res.
func NewRunRows(res *merge.Result) []RunRow {
	records := res.Records()
	out := make([]RunRow, len(res.Rows))
	for i, row := range res.Rows {
		cov := row.Coverage
		cats := make(pq.Float64Array, len(reconcile.Categories))
		for j, cat := range reconcile.Categories {
			cats[j] = cov.CategoryHC[cat]
		}
		out[i] = RunRow{
			RunID:             res.RunID,
			RowIndex:          row.Index,
			InternalID:        row.Record.InternalID,
			SiteID:            row.Record.SiteID,
			Irrigation:        row.Record.Irrigation,
			PercentCoverage:   cov.PercentCoverage,
			PercentCoverageHC: cov.PercentCoverageHC,
			PolyAvgSize:       cov.PolyAvgSize,
			PolyAvgSizeHC:     cov.PolyAvgSizeHC,
			PolyMinSize:       cov.PolyMinSize,
			PolyMinSizeHC:     cov.PolyMinSizeHC,
			CategoryHC:        cats,
			Cells:             records[i],
		}
	}
	return out
}

// NewRunIssues converts the issues of res, keeping report order in Seq.
func NewRunIssues(res *merge.Result) []RunIssue {
	out := make([]RunIssue, len(res.Issues))
	for i, is := range res.Issues {
		out[i] = RunIssue{
			RunID:        res.RunID,
			Seq:          i,
			Kind:         string(is.Kind),
			RowIndex:     index(is.Row),
			PolygonIndex: index(is.Polygon),
			Message:      is.Message,
		}
	}
	return out
}

func index(i int) *int {
	if i == reconcile.NoIndex {
		return nil
	}
	return &i
}
