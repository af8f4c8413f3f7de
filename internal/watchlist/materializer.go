package watchlist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stockwatch/internal/models"
	"stockwatch/internal/upstream"
)

const (
	defaultMaterializePageSize = 200
	defaultMaterializeMaxPages = 50
)

// Materializer pulls the full watchlist for one category scope by
// paging through the list endpoint in default order. Search mode
// filters and sorts the result locally.
type Materializer struct {
	API      API
	PageSize int
	MaxPages int
	Logger   *zap.Logger
}

// Materialize fetches every page until the reported total is reached,
// a page comes back empty, or the page cap stops a runaway total. Any
// page error fails the whole fetch; no partial set is returned.
func (m *Materializer) Materialize(ctx context.Context, categoryID *int64) ([]models.Record, error) {
	pageSize := m.PageSize
	if pageSize <= 0 {
		pageSize = defaultMaterializePageSize
	}
	maxPages := m.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaterializeMaxPages
	}

	var out []models.Record
	total := 0
	for page := 1; page <= maxPages; page++ {
		res, err := m.API.ListWatch(ctx, upstream.ListParams{
			CategoryID: categoryID,
			Page:       page,
			PageSize:   pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("materialize page %d: %w", page, err)
		}
		if page == 1 {
			total = res.Total
		}
		if len(res.Items) == 0 {
			return out, nil
		}
		out = append(out, res.Items...)
		if len(out) >= total {
			return out, nil
		}
	}
	if m.Logger != nil {
		m.Logger.Warn("materialized set truncated at page cap",
			zap.Int("max_pages", maxPages),
			zap.Int("fetched", len(out)),
			zap.Int("total", total),
		)
	}
	return out, nil
}
