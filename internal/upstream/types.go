package upstream

import "stockwatch/internal/models"

// On-conflict modes for bulk adds against codes already on the watchlist.
const (
	OnConflictIgnore = "ignore"
	OnConflictMove   = "move"
)

// ListParams describe one page request. SortBy is restricted to the keys the
// endpoint can order by; leave it empty for the endpoint's default order.
type ListParams struct {
	CategoryID *int64
	Page       int
	PageSize   int
	SortBy     string
	SortDir    string
}

type ListResult struct {
	Total int             `json:"total"`
	Items []models.Record `json:"items"`
}
