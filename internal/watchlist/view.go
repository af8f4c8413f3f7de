package watchlist

import (
	"stockwatch/internal/models"
	"stockwatch/internal/query"
)

type Mode string

const (
	// ModeNative shows one remotely sorted page per request.
	ModeNative Mode = "native"
	// ModeSearch filters and sorts a materialized copy of the whole
	// watchlist in memory.
	ModeSearch Mode = "search"
)

// Criteria is everything that determines what the view shows. It is
// committed as a whole; a failed load keeps the criteria that caused it.
type Criteria struct {
	CategoryID *int64          `json:"category_id"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	SortBy     query.SortKey   `json:"sort_by"`
	SortDir    string          `json:"sort_dir"`
	Search     bool            `json:"search"`
	Predicate  query.Predicate `json:"predicate"`
}

// Mode is search when the toggle is on or any clause is non-empty.
func (c Criteria) Mode() Mode {
	if c.Search || !c.Predicate.Empty() {
		return ModeSearch
	}
	return ModeNative
}

func (c Criteria) desc() bool {
	return c.SortDir == "desc"
}

// View is an immutable snapshot of the controller state. Items and
// Selected are copies; callers may keep them across later loads.
type View struct {
	Mode       Mode            `json:"mode"`
	Items      []models.Record `json:"items"`
	Total      int             `json:"total"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
	Selected   []int64         `json:"selected"`
	Criteria   Criteria        `json:"criteria"`
	Generation uint64          `json:"generation"`
}

// applyCriteria runs the in-memory half of search mode: filter the
// materialized set, order it, and cut the requested page window. Total
// counts the filtered set, not the page.
func applyCriteria(set []models.Record, crit Criteria) ([]models.Record, int) {
	filtered := make([]models.Record, 0, len(set))
	for i := range set {
		if crit.Predicate.Matches(&set[i]) {
			filtered = append(filtered, set[i])
		}
	}
	query.Sort(filtered, crit.SortBy, crit.desc())

	total := len(filtered)
	start := (crit.Page - 1) * crit.PageSize
	if start < 0 || start >= total {
		return []models.Record{}, total
	}
	end := start + crit.PageSize
	if end > total {
		end = total
	}
	page := make([]models.Record, end-start)
	copy(page, filtered[start:end])
	return page, total
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
