package watchlist

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"stockwatch/internal/models"
	"stockwatch/internal/query"
	"stockwatch/internal/upstream"
)

// stubAPI is a test-only in-memory backend. It serves pages out of a
// fixed record set, optionally blocks or fails on demand, and records
// every call it sees.
type stubAPI struct {
	mu sync.Mutex

	records    []models.Record
	categories []models.Category

	reportedTotal int   // 0 means len(records)
	listErr       error // every ListWatch fails
	failFromPage  int   // when >0, pages >= this fail
	gate          chan struct{}
	mutErr        error

	listCalls int
	catCalls  int
	lastList  upstream.ListParams

	created     []string
	bulkAdds    []stubBulkAdd
	setCategory []stubBulkCategory
	addedCats   []stubBulkCategories
	removedCats []stubBulkCategories
	deleted     [][]int64

	nextCatID int64
	network   int
}

type stubBulkAdd struct {
	codes      []string
	categoryID int64
	onConflict string
}

type stubBulkCategory struct {
	ids        []int64
	categoryID int64
}

type stubBulkCategories struct {
	ids         []int64
	categoryIDs []int64
}

func (s *stubAPI) ListWatch(ctx context.Context, params upstream.ListParams) (*upstream.ListResult, error) {
	s.mu.Lock()
	s.network++
	s.listCalls++
	s.lastList = params
	gate := s.gate
	listErr := s.listErr
	failFrom := s.failFromPage
	records := append([]models.Record(nil), s.records...)
	total := s.reportedTotal
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if listErr != nil {
		return nil, listErr
	}
	if failFrom > 0 && params.Page >= failFrom {
		return nil, errors.New("backend unavailable")
	}
	if total == 0 {
		total = len(records)
	}
	if params.SortBy != "" {
		if key, ok := query.ParseSortKey(params.SortBy); ok {
			query.Sort(records, key, params.SortDir == "desc")
		}
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.PageSize
	if size <= 0 {
		size = len(records)
	}
	start := (page - 1) * size
	if start >= len(records) {
		return &upstream.ListResult{Total: total, Items: []models.Record{}}, nil
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	items := make([]models.Record, end-start)
	copy(items, records[start:end])
	return &upstream.ListResult{Total: total, Items: items}, nil
}

func (s *stubAPI) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network++
	s.catCalls++
	if s.mutErr != nil {
		return nil, s.mutErr
	}
	return append([]models.Category(nil), s.categories...), nil
}

func (s *stubAPI) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network++
	if s.mutErr != nil {
		return nil, s.mutErr
	}
	if s.nextCatID == 0 {
		s.nextCatID = 1000
	}
	s.nextCatID++
	c := models.Category{ID: s.nextCatID, Name: name}
	s.categories = append(s.categories, c)
	s.created = append(s.created, name)
	return &c, nil
}

func (s *stubAPI) BulkAdd(ctx context.Context, codes []string, categoryID int64, onConflict string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network++
	if s.mutErr != nil {
		return s.mutErr
	}
	s.bulkAdds = append(s.bulkAdds, stubBulkAdd{codes: codes, categoryID: categoryID, onConflict: onConflict})
	return nil
}

func (s *stubAPI) BulkSetCategory(ctx context.Context, ids []int64, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network++
	if s.mutErr != nil {
		return s.mutErr
	}
	s.setCategory = append(s.setCategory, stubBulkCategory{ids: ids, categoryID: categoryID})
	return nil
}

func (s *stubAPI) BulkAddCategories(ctx context.Context, ids []int64, categoryIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network++
	if s.mutErr != nil {
		return s.mutErr
	}
	s.addedCats = append(s.addedCats, stubBulkCategories{ids: ids, categoryIDs: categoryIDs})
	return nil
}

func (s *stubAPI) BulkRemoveCategories(ctx context.Context, ids []int64, categoryIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network++
	if s.mutErr != nil {
		return s.mutErr
	}
	s.removedCats = append(s.removedCats, stubBulkCategories{ids: ids, categoryIDs: categoryIDs})
	return nil
}

func (s *stubAPI) BulkDelete(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network++
	if s.mutErr != nil {
		return s.mutErr
	}
	s.deleted = append(s.deleted, ids)
	return nil
}

func (s *stubAPI) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.network
}

func (s *stubAPI) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *stubAPI) lastListParams() upstream.ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastList
}

func (s *stubAPI) setListErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *stubAPI) setMutErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutErr = err
}

func num(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// fixtureRecords is five rows across three categories in backend
// default order; id 2 has no quote data.
func fixtureRecords() []models.Record {
	return []models.Record{
		{ID: 1, Code: "600000.SH", Name: "Pufa Bank", CategoryNames: "Banks", PctChange: num("1.5"), Last: num("8.20")},
		{ID: 2, Code: "000001.SZ", Name: "Pingan Bank", CategoryNames: "Banks"},
		{ID: 3, Code: "0700.HK", Name: "Tencent", CategoryNames: "Tech", PctChange: num("-0.5"), Last: num("310.4")},
		{ID: 4, Code: "AAPL", Name: "Apple", CategoryNames: "Tech;US", PctChange: num("3.2"), Last: num("189.7")},
		{ID: 5, Code: "600519.SH", Name: "Moutai", CategoryNames: "Liquor", PctChange: num("0"), Last: num("1680")},
	}
}

func viewIDs(items []models.Record) []int64 {
	out := make([]int64, 0, len(items))
	for i := range items {
		out = append(out, items[i].ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
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
