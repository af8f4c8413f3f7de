package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestListWatchEncodesParamsAndDecodes(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":2,"items":[{"id":1,"code":"600000.SH","pct_change":1.5},{"id":2,"code":"000001.SZ"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	catID := int64(3)
	res, err := client.ListWatch(context.Background(), ListParams{
		CategoryID: &catID,
		Page:       2,
		PageSize:   50,
		SortBy:     "name",
		SortDir:    "desc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/watch/list" {
		t.Fatalf("path=%s", gotPath)
	}
	if gotQuery.Get("category_id") != "3" || gotQuery.Get("page") != "2" || gotQuery.Get("page_size") != "50" {
		t.Fatalf("query=%v", gotQuery)
	}
	if gotQuery.Get("sort_by") != "name" || gotQuery.Get("sort_dir") != "desc" {
		t.Fatalf("sort query=%v", gotQuery)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Fatalf("total=%d items=%d", res.Total, len(res.Items))
	}
	if res.Items[0].PctChange == nil || !res.Items[0].PctChange.Equal(mustDec(t, "1.5")) {
		t.Fatalf("pct_change not decoded: %+v", res.Items[0].PctChange)
	}
	if res.Items[1].PctChange != nil {
		t.Fatalf("missing pct_change should stay nil")
	}
}

func TestListWatchDefaultOrderOmitsSort(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"total":0,"items":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	res, err := client.ListWatch(context.Background(), ListParams{PageSize: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Has("sort_by") || gotQuery.Has("sort_dir") {
		t.Fatalf("default order must not send sort params: %v", gotQuery)
	}
	if gotQuery.Get("page") != "1" {
		t.Fatalf("page should default to 1, query=%v", gotQuery)
	}
	if res.Items == nil {
		t.Fatalf("items should decode to an empty slice")
	}
}

func TestNon200BecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	_, err := client.ListWatch(context.Background(), ListParams{})
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("status=%d want=502", apiErr.Status)
	}
}

func TestMalformedResponseIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	_, err := client.ListWatch(context.Background(), ListParams{})
	if err == nil {
		t.Fatalf("expected decode error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("malformed body is not an API status error")
	}
}

func TestBulkAddSendsPayload(t *testing.T) {
	var gotPath string
	var got bulkAddPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	err := client.BulkAdd(context.Background(), []string{"600000", "000001"}, 7, OnConflictMove)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/watch/items/bulk_add" {
		t.Fatalf("path=%s", gotPath)
	}
	if len(got.Codes) != 2 || got.CategoryID != 7 || got.OnConflict != OnConflictMove {
		t.Fatalf("payload=%+v", got)
	}
}

func TestClientSideValidation(t *testing.T) {
	client := NewClient(http.DefaultClient, "http://127.0.0.1:0")
	if err := client.BulkAdd(context.Background(), nil, 1, OnConflictIgnore); err == nil {
		t.Fatalf("empty codes must fail before any request")
	}
	if err := client.BulkDelete(context.Background(), nil); err == nil {
		t.Fatalf("empty ids must fail before any request")
	}
	if _, err := client.CreateCategory(context.Background(), "  "); err == nil {
		t.Fatalf("blank name must fail before any request")
	}
}
