package trackers

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/starford/daybook/internal/models"
)

func TestEmptyYearLengths(t *testing.T) {
	doc := EmptyYear(2024)
	wantDays := []int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	for m := 1; m <= 12; m++ {
		if len(doc[m]) != wantDays[m-1] {
			t.Errorf("month %d has %d cells, want %d", m, len(doc[m]), wantDays[m-1])
		}
		for i, cell := range doc[m] {
			if cell != nil {
				t.Errorf("month %d cell %d = %v, want nil", m, i, cell)
			}
		}
	}
	if len(EmptyYear(2026)[2]) != 28 {
		t.Errorf("Feb 2026 = %d cells, want 28", len(EmptyYear(2026)[2]))
	}
}

func TestNormalizeYearIdempotent(t *testing.T) {
	doc := EmptyYear(2026)
	doc[3][9] = models.TrackerCell{"rating": float64(7)}
	doc[12][30] = models.TrackerCell{"rating": float64(2), "hex": "#FF0000"}

	once := NormalizeYear(doc, 2026)
	twice := NormalizeYear(once, 2026)
	if !reflect.DeepEqual(once, twice) {
		t.Error("normalizing a normalized document changed it")
	}
	if !reflect.DeepEqual(once[3][9], doc[3][9]) {
		t.Errorf("cell lost in normalization: %v", once[3][9])
	}
}

func TestNormalizeYearFromJSONArrays(t *testing.T) {
	// The shape a year document has after a plain JSON round trip:
	// map[string]any with float keys lost, months as []any.
	blob := `{"1":[{"rating":5},null,{"rating":8}],"2":[null,{"screenTime":3}]}`
	var raw any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		t.Fatal(err)
	}

	doc := NormalizeYear(raw, 2026)
	if len(doc[1]) != 31 {
		t.Fatalf("month 1 has %d cells, want 31", len(doc[1]))
	}
	if doc[1][0]["rating"] != float64(5) || doc[1][2]["rating"] != float64(8) {
		t.Errorf("month 1 cells = %v", doc[1][:3])
	}
	if doc[1][1] != nil {
		t.Errorf("null cell = %v, want nil", doc[1][1])
	}
	if doc[2][1]["screenTime"] != float64(3) {
		t.Errorf("month 2 cell = %v", doc[2][1])
	}
	if len(doc[7]) != 31 || doc[7][0] != nil {
		t.Errorf("absent month not seeded empty: %v", doc[7][:1])
	}
}

func TestNormalizeYearFromLegacyObjectMonths(t *testing.T) {
	// Some old documents stored months as objects keyed by day index.
	blob := `{"2":{"0":{"rating":9},"5":{"rating":1},"40":{"rating":3},"x":{"rating":4}}}`
	var raw any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		t.Fatal(err)
	}

	doc := NormalizeYear(raw, 2024)
	if len(doc[2]) != 29 {
		t.Fatalf("Feb 2024 has %d cells, want 29", len(doc[2]))
	}
	if doc[2][0]["rating"] != float64(9) || doc[2][5]["rating"] != float64(1) {
		t.Errorf("cells = %v, %v", doc[2][0], doc[2][5])
	}
	// Out-of-range and non-numeric keys are dropped.
	for i, cell := range doc[2] {
		if i != 0 && i != 5 && cell != nil {
			t.Errorf("unexpected cell at %d: %v", i, cell)
		}
	}
}

func TestNormalizeYearTruncatesOverlongMonths(t *testing.T) {
	// A month seeded in a leap year being read in a common year.
	doc := EmptyYear(2024)
	doc[2][28] = models.TrackerCell{"rating": float64(6)}

	normalized := NormalizeYear(doc, 2026)
	if len(normalized[2]) != 28 {
		t.Errorf("Feb has %d cells, want 28", len(normalized[2]))
	}
}

func TestNormalizeYearDropsGarbage(t *testing.T) {
	var raw any
	if err := json.Unmarshal([]byte(`{"1":[42,"note",{},{"rating":5}]}`), &raw); err != nil {
		t.Fatal(err)
	}
	doc := NormalizeYear(raw, 2026)
	if doc[1][0] != nil || doc[1][1] != nil || doc[1][2] != nil {
		t.Errorf("garbage cells kept: %v", doc[1][:3])
	}
	if doc[1][3]["rating"] != float64(5) {
		t.Errorf("valid cell dropped: %v", doc[1][3])
	}
}

func TestNormalizeYearNilInput(t *testing.T) {
	doc := NormalizeYear(nil, 2026)
	if !reflect.DeepEqual(doc, EmptyYear(2026)) {
		t.Error("nil input should normalize to an empty year")
	}
}
