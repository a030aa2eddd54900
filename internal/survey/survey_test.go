package survey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "MV_1-25.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseCSV(t *testing.T) {
	path := writeCSV(t, "\ufeffsite_id,internal_id,operator,x,y,year,month,day,irrigation\n"+
		"id_5345209,1,AB,27.1071721513814,-17.146892667882046,2021,6,9,5\n"+
		"id_5200403,2,AB,28.18225451770237,-16.15829617864069,2021,6,10,1.0\n")

	table, err := ParseCSV(path)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(table.Records))
	}
	if table.Header[0] != "site_id" {
		t.Errorf("BOM not stripped: %q", table.Header[0])
	}
	r := table.Records[1]
	if r.InternalID != 2 || r.Irrigation != 1 || r.Day != 10 {
		t.Errorf("unexpected record %+v", r)
	}
	if r.Values[2] != "AB" {
		t.Errorf("extra column lost: %v", r.Values)
	}
	if r.Date() != "10/6/2021" {
		t.Errorf("Date() = %q", r.Date())
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	path := writeCSV(t, "internal_id,site_id,year,month,day,x,y\n1,id_1,2021,6,9,27,-17\n")
	_, err := ParseCSV(path)
	if err == nil || !strings.Contains(err.Error(), "irrigation") {
		t.Fatalf("err = %v, want missing irrigation column", err)
	}
}

func TestParseCSVBadCell(t *testing.T) {
	path := writeCSV(t, "internal_id,site_id,year,month,day,irrigation,x,y\n"+
		"1,id_1,2021,6,9,5,27,-17\n"+
		"2,id_2,2021,six,9,5,27,-17\n")
	_, err := ParseCSV(path)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("err = %v, want *RowError", err)
	}
	if rowErr.Row != 3 || rowErr.Column != "month" {
		t.Errorf("RowError = %+v, want row 3 column month", rowErr)
	}
}

func TestParseCSVOutOfRangeLabel(t *testing.T) {
	path := writeCSV(t, "internal_id,site_id,year,month,day,irrigation,x,y\n1,id_1,2021,6,9,7,27,-17\n")
	_, err := ParseCSV(path)
	if err == nil || !strings.Contains(err.Error(), "Irrigation") {
		t.Fatalf("err = %v, want Irrigation validation failure", err)
	}
}

func TestLegacyKey(t *testing.T) {
	tests := []struct {
		siteID  string
		want    int
		wantErr bool
	}{
		{"id_5345209", 5345209, false},
		{"id_ 42", 42, false},
		{"id_", 0, true},
		{"id", 0, true},
		{"id_abc", 0, true},
	}
	for _, tc := range tests {
		got, err := LegacyKey(tc.siteID)
		if tc.wantErr {
			var lk *LegacyKeyError
			if !errors.As(err, &lk) {
				t.Errorf("LegacyKey(%q) err = %v, want *LegacyKeyError", tc.siteID, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("LegacyKey(%q) = %d, %v; want %d", tc.siteID, got, err, tc.want)
		}
	}
}

func TestBuildFootprint(t *testing.T) {
	r := Record{X: 27.1, Y: -17.1}
	r.BuildFootprint(0.5)
	if len(r.Footprint) != 5 {
		t.Fatalf("footprint has %d vertices", len(r.Footprint))
	}
}
