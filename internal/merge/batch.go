package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Batch is the outcome of merging every survey file in a folder.
type Batch struct {
	Dir      string
	Results  []*Result
	Failures []*FileError
}

// RunBatch merges every *.csv survey in <dir>/processed, or in dir itself
// when it has no processed subfolder. Files run sequentially in name order;
// a failing file is recorded and the batch continues. An error is returned
// only when the folder cannot be listed or ctx is done.
func RunBatch(ctx context.Context, cfg Config, dir string) (*Batch, error) {
	folder := filepath.Join(dir, "processed")
	if fi, err := os.Stat(folder); err != nil || !fi.IsDir() {
		folder = dir
	}

	paths, err := surveyFiles(folder)
	if err != nil {
		return nil, err
	}

	b := &Batch{Dir: folder}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return b, err
		}
		fileCfg := cfg
		fileCfg.SurveyPath = p
		fileCfg.PolygonsPath = ""

		res, err := Run(ctx, fileCfg)
		if err != nil {
			fe := &FileError{Path: p, Err: err}
			LogError("batch", fe)
			b.Failures = append(b.Failures, fe)
			continue
		}
		b.Results = append(b.Results, res)
	}
	return b, nil
}

func surveyFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		out = append(out, filepath.Join(folder, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Combined concatenates the merged tables of every successful file. Columns
// are the union of all headers in first-seen order; cells missing from a
// file are left empty.
func (b *Batch) Combined() (header []string, records [][]string) {
	pos := map[string]int{}
	for _, r := range b.Results {
		for _, h := range r.Header {
			if _, ok := pos[h]; !ok {
				pos[h] = len(header)
				header = append(header, h)
			}
		}
	}
	for _, r := range b.Results {
		for _, cells := range r.Records() {
			out := make([]string, len(header))
			for i, h := range r.Header {
				if i < len(cells) {
					out[pos[h]] = cells[i]
				}
			}
			records = append(records, out)
		}
	}
	return header, records
}
