package query

import (
	"testing"

	"github.com/shopspring/decimal"

	"stockwatch/internal/models"
)

func dec(t *testing.T, v string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", v, err)
	}
	return &d
}

func strPtr(s string) *string {
	return &s
}

func pctRecords(t *testing.T) []models.Record {
	t.Helper()
	return []models.Record{
		{ID: 1, Code: "600000.SH", Name: "Pufa Bank"},
		{ID: 2, Code: "000001.SZ", Name: "Pingan Bank", PctChange: dec(t, "1.5")},
		{ID: 3, Code: "300750.SZ", Name: "CATL", PctChange: dec(t, "-0.5")},
	}
}

func idsOf(records []models.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortPctChangeDescPutsMissingLast(t *testing.T) {
	records := pctRecords(t)
	Sort(records, SortPctChange, true)
	if got := idsOf(records); !sameIDs(got, []int64{2, 3, 1}) {
		t.Fatalf("order=%v want=[2 3 1]", got)
	}
}

func TestSortPctChangeAscStillPutsMissingLast(t *testing.T) {
	records := pctRecords(t)
	Sort(records, SortPctChange, false)
	if got := idsOf(records); !sameIDs(got, []int64{3, 2, 1}) {
		t.Fatalf("order=%v want=[3 2 1]", got)
	}
}

func TestSortIsDeterministicAcrossPermutations(t *testing.T) {
	base := []models.Record{
		{ID: 1, Code: "600519.SH", PctChange: dec(t, "2")},
		{ID: 2, Code: "000858.SZ", PctChange: dec(t, "2")},
		{ID: 3, Code: "601318.SH", PctChange: dec(t, "2")},
		{ID: 4, Code: "300059.SZ"},
		{ID: 5, Code: "002594.SZ"},
	}
	forward := append([]models.Record(nil), base...)
	backward := make([]models.Record, 0, len(base))
	for i := len(base) - 1; i >= 0; i-- {
		backward = append(backward, base[i])
	}
	Sort(forward, SortPctChange, true)
	Sort(backward, SortPctChange, true)
	if !sameIDs(idsOf(forward), idsOf(backward)) {
		t.Fatalf("permutation changed order: %v vs %v", idsOf(forward), idsOf(backward))
	}
	// Ties resolve by display code ascending: 000858 < 600519 < 601318.
	if got := idsOf(forward); !sameIDs(got, []int64{2, 1, 3, 5, 4}) {
		t.Fatalf("order=%v want=[2 1 3 5 4]", got)
	}
}

func TestTieBreakStaysAscendingUnderDesc(t *testing.T) {
	records := []models.Record{
		{ID: 1, Code: "600000.SH", Name: "alpha"},
		{ID: 2, Code: "000001.SZ", Name: "alpha"},
	}
	Sort(records, SortName, true)
	if got := idsOf(records); !sameIDs(got, []int64{2, 1}) {
		t.Fatalf("order=%v want=[2 1] (tie-break by code asc)", got)
	}
	Sort(records, SortName, false)
	if got := idsOf(records); !sameIDs(got, []int64{2, 1}) {
		t.Fatalf("order=%v want=[2 1] (tie-break independent of direction)", got)
	}
}

func TestStringKeysCompareCaseInsensitive(t *testing.T) {
	records := []models.Record{
		{ID: 1, Code: "AAPL.US", Name: "Banana Corp"},
		{ID: 2, Code: "MSFT.US", Name: "apple Inc"},
	}
	Sort(records, SortName, false)
	if got := idsOf(records); !sameIDs(got, []int64{2, 1}) {
		t.Fatalf("order=%v want=[2 1] (case-insensitive name sort)", got)
	}
}

func TestCodeKeySortsByDisplayCode(t *testing.T) {
	records := []models.Record{
		{ID: 1, Code: "600000.SH"},
		{ID: 2, Code: "0700.HK"},
	}
	Sort(records, SortCode, false)
	if got := idsOf(records); !sameIDs(got, []int64{2, 1}) {
		t.Fatalf("order=%v want=[2 1] (0700 before 600000)", got)
	}
}

func TestTimestampKeyTreatsMissingAsEmpty(t *testing.T) {
	records := []models.Record{
		{ID: 1, Code: "B.SZ", CreatedAt: strPtr("2024-03-01 09:00:00")},
		{ID: 2, Code: "A.SH"},
	}
	Sort(records, SortCreatedAt, false)
	if got := idsOf(records); !sameIDs(got, []int64{2, 1}) {
		t.Fatalf("order=%v want=[2 1] (empty timestamp sorts first asc)", got)
	}
}

func TestCompareAntisymmetry(t *testing.T) {
	records := pctRecords(t)
	for i := range records {
		for j := range records {
			ab := Compare(&records[i], &records[j], SortPctChange, true)
			ba := Compare(&records[j], &records[i], SortPctChange, true)
			if ab != -ba {
				t.Fatalf("compare(%d,%d)=%d compare(%d,%d)=%d", records[i].ID, records[j].ID, ab, records[j].ID, records[i].ID, ba)
			}
		}
	}
}

func TestParseSortKey(t *testing.T) {
	if k, ok := ParseSortKey(" Pct_Change "); !ok || k != SortPctChange {
		t.Fatalf("ParseSortKey pct_change: key=%q ok=%v", k, ok)
	}
	if k, ok := ParseSortKey("created_at"); !ok || !k.Persistent() {
		t.Fatalf("created_at should be persistent, key=%q ok=%v", k, ok)
	}
	if _, ok := ParseSortKey("turnover"); ok {
		t.Fatalf("unknown key should not parse")
	}
	if SortPctChange.Persistent() || !SortPctChange.Realtime() {
		t.Fatalf("pct_change family wrong")
	}
}
