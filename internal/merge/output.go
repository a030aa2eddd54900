package merge

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smallholder-irrigation/survey-merge/internal/reconcile"
	"github.com/smallholder-irrigation/survey-merge/internal/survey"
)

// SourceFileColumn names the provenance column appended to merged tables.
const SourceFileColumn = "source_file"

// CoverageColumns are appended to the survey columns, in this order.
var CoverageColumns = func() []string {
	cols := []string{
		"percent_coverage",
		"percent_coverage_hc",
		"poly_avg_size",
		"poly_avg_size_hc",
		"poly_min_size",
		"poly_min_size_hc",
	}
	for _, cat := range reconcile.Categories {
		cols = append(cols, "percent_coverage_hc_"+cat)
	}
	return cols
}()

// Row is a survey record with its coverage statistics.
type Row struct {
	Index    int
	Record   survey.Record
	Coverage reconcile.Coverage
}

// Cells renders the row as merged-table cells.
func (r Row) Cells(sourceFile string) []string {
	cov := r.Coverage
	cells := append([]string{}, r.Record.Values...)
	cells = append(cells,
		formatFloat(cov.PercentCoverage),
		formatFloat(cov.PercentCoverageHC),
		formatOptional(cov.PolyAvgSize),
		formatOptional(cov.PolyAvgSizeHC),
		formatOptional(cov.PolyMinSize),
		formatOptional(cov.PolyMinSizeHC),
	)
	for _, cat := range reconcile.Categories {
		cells = append(cells, formatFloat(cov.CategoryHC[cat]))
	}
	return append(cells, sourceFile)
}

// MergedHeader returns the survey header followed by the derived columns.
func MergedHeader(surveyHeader []string) []string {
	out := make([]string, 0, len(surveyHeader)+len(CoverageColumns)+1)
	out = append(out, surveyHeader...)
	out = append(out, CoverageColumns...)
	return append(out, SourceFileColumn)
}

// OutputPaths places outputs in <parent of survey dir>/<mergedDir>.
func OutputPaths(surveyPath, mergedDir string) (dir, mergedPath, reportPath string) {
	dir = filepath.Join(filepath.Dir(filepath.Dir(surveyPath)), mergedDir)
	name := SourceFile(surveyPath)
	return dir, filepath.Join(dir, name+"_merged.csv"), filepath.Join(dir, name+"_report.txt")
}

// SourceFile is the survey file name without its .csv extension.
func SourceFile(surveyPath string) string {
	return strings.TrimSuffix(filepath.Base(surveyPath), ".csv")
}

// WriteMerged writes the merged table.
func WriteMerged(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// WriteReport writes one line per entry, each newline-terminated.
func WriteReport(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
