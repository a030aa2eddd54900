package survey

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/smallholder-irrigation/survey-merge/internal/validation"
)

// ParseCSV reads a survey table. Every column of the file is kept so the
// merged output can reproduce it; the required columns are parsed into typed
// fields. Any malformed required cell fails the whole file.
func ParseCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, errors.New("csv has no header")
	}

	header := records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := map[string]int{}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		col[header[i]] = i
	}

	for _, k := range RequiredColumns {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	table := &Table{Path: path, Header: header}

	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		line := rowIdx + 1
		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		var (
			out     Record
			cellErr error
		)
		intCell := func(name string) int {
			if cellErr != nil {
				return 0
			}
			v, err := ParseInt(get(name))
			if err != nil {
				cellErr = &RowError{Row: line, Column: name, Err: err}
			}
			return v
		}
		floatCell := func(name string) float64 {
			if cellErr != nil {
				return 0
			}
			v, err := strconv.ParseFloat(get(name), 64)
			if err != nil {
				cellErr = &RowError{Row: line, Column: name, Err: err}
			}
			return v
		}

		out.InternalID = intCell("internal_id")
		out.SiteID = get("site_id")
		out.Year = intCell("year")
		out.Month = intCell("month")
		out.Day = intCell("day")
		out.Irrigation = intCell("irrigation")
		out.X = floatCell("x")
		out.Y = floatCell("y")
		if cellErr != nil {
			return nil, cellErr
		}
		if err := validation.Struct(out); err != nil {
			return nil, &RowError{Row: line, Err: err}
		}

		values := make([]string, len(header))
		copy(values, rec)
		out.Values = values

		table.Records = append(table.Records, out)
	}

	return table, nil
}

// ParseInt accepts plain integers and integral floats such as "3.0", which
// spreadsheet exports produce for integer columns with gaps.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}
