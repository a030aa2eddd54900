package reconcile

import (
	"strings"
	"testing"

	"github.com/smallholder-irrigation/survey-merge/internal/survey"
)

func matchesWith(certainties ...int) []Match {
	out := make([]Match, len(certainties))
	for i, c := range certainties {
		out[i] = Match{Index: i, Annotation: annotation(1, 2021, 6, 9, c)}
	}
	return out
}

func kinds(issues []Issue) []Kind {
	out := make([]Kind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func TestCheckConsistencyRules(t *testing.T) {
	tests := []struct {
		name    string
		label   int
		matches []Match
		want    []Kind
	}{
		{"no irrigation, no polygons", 1, nil, nil},
		{"no irrigation, polygon", 1, matchesWith(2), []Kind{KindFalsePositive}},
		{"possible irrigation, no polygons", 3, nil, []Kind{KindMissingPolygons}},
		{"uncertain with uncertain polygons", 3, matchesWith(2, 4), nil},
		{"uncertain with certain polygon", 4, matchesWith(2, 5), []Kind{KindUnexpectedCertain}},
		{"certain, no polygons", 5, nil, []Kind{KindMissingPolygons, KindMissingCertain}},
		{"certain, uncertain polygons", 5, matchesWith(3, 4), []Kind{KindMissingCertain}},
		{"certain, certain polygon", 5, matchesWith(1, 5), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := survey.Record{InternalID: 1, Year: 2021, Month: 6, Day: 9, Irrigation: tc.label}
			got := kinds(CheckConsistency(0, rec, tc.matches))
			if len(got) != len(tc.want) {
				t.Fatalf("kinds = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("kinds = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestFalsePositiveMessageIsTraceable(t *testing.T) {
	rec := survey.Record{InternalID: 42, Year: 2021, Month: 6, Day: 10, Irrigation: 1}
	issues := CheckConsistency(7, rec, matchesWith(3))
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	msg := issues[0].Message
	for _, want := range []string{"Row 7", "internal_id 42", "10/6/2021"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	if issues[0].Row != 7 || issues[0].Polygon != NoIndex {
		t.Errorf("issue indices = %d/%d", issues[0].Row, issues[0].Polygon)
	}
}

func TestMissingCertainMessage(t *testing.T) {
	rec := survey.Record{InternalID: 1, Year: 2021, Month: 6, Day: 9, Irrigation: 5}
	issues := CheckConsistency(0, rec, matchesWith(4, 4, 2))
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "certainty 5") {
		t.Fatalf("issues = %+v, want one missing certainty-5 issue", issues)
	}
}

func TestReportLines(t *testing.T) {
	if got := ReportLines(nil); len(got) != 1 || got[0] != AllChecksPassed {
		t.Errorf("ReportLines(nil) = %v", got)
	}
	got := ReportLines([]Issue{{Message: "a"}, {Message: "b"}})
	if len(got) != 2 || got[1] != "b" {
		t.Errorf("ReportLines = %v", got)
	}
}
