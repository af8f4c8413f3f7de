package watchlist

import (
	"context"

	"stockwatch/internal/models"
	"stockwatch/internal/upstream"
)

// API is the slice of the analysis backend the watchlist engine calls.
// *upstream.Client satisfies it; tests substitute an in-memory stub.
type API interface {
	ListWatch(ctx context.Context, params upstream.ListParams) (*upstream.ListResult, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	BulkAdd(ctx context.Context, codes []string, categoryID int64, onConflict string) error
	BulkSetCategory(ctx context.Context, ids []int64, categoryID int64) error
	BulkAddCategories(ctx context.Context, ids []int64, categoryIDs []int64) error
	BulkRemoveCategories(ctx context.Context, ids []int64, categoryIDs []int64) error
	BulkDelete(ctx context.Context, ids []int64) error
}
