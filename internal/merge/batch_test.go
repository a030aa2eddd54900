package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunBatch(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "A", surveyCSV, polygonsGeoJSON)
	writeFixture(t, root, "B",
		"internal_id,site_id,year,month,day,irrigation,x,y,extra\n102,id_102,2021,7,1,5,30.1,-15.1,x\n",
		polygonsGeoJSON)
	// C has no polygons next to it.
	if err := os.WriteFile(filepath.Join(root, "processed", "C.csv"), []byte(surveyCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := RunBatch(context.Background(), Config{}, root)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(b.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(b.Results))
	}
	if len(b.Failures) != 1 || filepath.Base(b.Failures[0].Path) != "C.csv" {
		t.Fatalf("failures = %v", b.Failures)
	}
	if !errors.Is(b.Failures[0], os.ErrNotExist) {
		t.Errorf("failure cause = %v", b.Failures[0].Err)
	}

	header, records := b.Combined()
	if len(records) != 3 {
		t.Fatalf("combined %d rows, want 3", len(records))
	}
	col := map[string]int{}
	for i, h := range header {
		col[h] = i
	}
	if _, ok := col["notes"]; !ok {
		t.Fatalf("header missing notes: %v", header)
	}
	if _, ok := col["extra"]; !ok {
		t.Fatalf("header missing extra: %v", header)
	}
	last := records[2]
	if last[col["source_file"]] != "B" || last[col["extra"]] != "x" || last[col["notes"]] != "" {
		t.Errorf("last row = %v", last)
	}
	if _, err := os.Stat(filepath.Join(root, "merged", "A_merged.csv")); err != nil {
		t.Errorf("A not written: %v", err)
	}
}

func TestRunBatchMissingFolder(t *testing.T) {
	if _, err := RunBatch(context.Background(), Config{}, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing folder")
	}
}
