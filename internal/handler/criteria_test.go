package handler

import (
	"testing"

	"github.com/shopspring/decimal"

	"stockwatch/internal/query"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestToCriteriaBuildsFiltersFromStrings(t *testing.T) {
	catID := int64(3)
	req := criteriaRequest{
		CategoryID: &catID,
		Page:       2,
		PageSize:   50,
		SortBy:     "PCT_CHANGE",
		SortDir:    "DESC",
		Search:     true,
		Predicate: &predicateRequest{
			Name:      "bank",
			PctChange: &numericFilterRequest{Enabled: true, Op: ">=", Threshold: " 0.5 "},
			CreatedAt: &dateFilterRequest{Enabled: true, Op: "<=", Threshold: "2024-03-01"},
		},
	}

	crit, err := req.toCriteria()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crit.SortBy != query.SortPctChange || crit.SortDir != "desc" {
		t.Fatalf("sort=%s/%s", crit.SortBy, crit.SortDir)
	}
	if crit.CategoryID == nil || *crit.CategoryID != 3 || crit.Page != 2 || crit.PageSize != 50 {
		t.Fatalf("paging=%+v", crit)
	}
	if !crit.Search || crit.Predicate.Name != "bank" {
		t.Fatalf("predicate=%+v", crit.Predicate)
	}
	f := crit.Predicate.PctChange
	if !f.Enabled || f.Op != query.OpGTE || !f.Threshold.Equal(decimalFromString(t, "0.5")) {
		t.Fatalf("pct filter=%+v", f)
	}
	d := crit.Predicate.CreatedAt
	if !d.Enabled || d.Op != query.OpLTE || d.Threshold != "2024-03-01" {
		t.Fatalf("date filter=%+v", d)
	}
}

func TestToCriteriaLeavesOmittedFiltersDisabled(t *testing.T) {
	crit, err := criteriaRequest{Predicate: &predicateRequest{Name: "x"}}.toCriteria()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crit.Predicate.Last.Enabled || crit.Predicate.CreatedAt.Enabled {
		t.Fatalf("omitted filters must stay disabled: %+v", crit.Predicate)
	}
	// A disabled filter with garbage inside is ignored, not rejected.
	crit, err = criteriaRequest{Predicate: &predicateRequest{
		Last: &numericFilterRequest{Enabled: false, Op: "!!", Threshold: "abc"},
	}}.toCriteria()
	if err != nil {
		t.Fatalf("disabled filter must not be validated: %v", err)
	}
	if crit.Predicate.Last.Enabled {
		t.Fatalf("filter should stay disabled")
	}
}

func TestToCriteriaRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		req  criteriaRequest
	}{
		{"bad sort key", criteriaRequest{SortBy: "volume_weighted"}},
		{"bad op", criteriaRequest{Predicate: &predicateRequest{
			Last: &numericFilterRequest{Enabled: true, Op: "between", Threshold: "1"},
		}}},
		{"bad threshold", criteriaRequest{Predicate: &predicateRequest{
			Last: &numericFilterRequest{Enabled: true, Op: ">", Threshold: "ten"},
		}}},
		{"empty numeric threshold", criteriaRequest{Predicate: &predicateRequest{
			High: &numericFilterRequest{Enabled: true, Op: ">"},
		}}},
		{"bad date", criteriaRequest{Predicate: &predicateRequest{
			CreatedAt: &dateFilterRequest{Enabled: true, Op: ">=", Threshold: "03/01/2024"},
		}}},
	}
	for _, tc := range cases {
		if _, err := tc.req.toCriteria(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestToCriteriaAllowsEmptyDateThreshold(t *testing.T) {
	// An enabled date filter with no threshold is vacuous, not invalid.
	crit, err := criteriaRequest{Predicate: &predicateRequest{
		LastAnalysis: &dateFilterRequest{Enabled: true, Op: ">="},
	}}.toCriteria()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !crit.Predicate.LastAnalysis.Enabled || crit.Predicate.LastAnalysis.Threshold != "" {
		t.Fatalf("filter=%+v", crit.Predicate.LastAnalysis)
	}
}
