package watchlist

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"stockwatch/internal/handoff"
	"stockwatch/internal/models"
	"stockwatch/internal/upstream"
)

// Validation failures are reported before any backend call is made.
var (
	ErrNothingSelected    = errors.New("no rows selected")
	ErrNoCodes            = errors.New("no codes provided")
	ErrNoTargetCategory   = errors.New("at least one category is required")
	ErrExactlyOneCategory = errors.New("exactly one target category is required")
	ErrConfirmRequired    = errors.New("delete requires confirmation")
	ErrBadOnConflict      = errors.New(`on_conflict must be "ignore" or "move"`)
)

// IsValidation reports whether err is a precondition failure rather
// than a backend one.
func IsValidation(err error) bool {
	for _, sentinel := range []error{
		ErrNothingSelected, ErrNoCodes, ErrNoTargetCategory,
		ErrExactlyOneCategory, ErrConfirmRequired, ErrBadOnConflict,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Dispatcher runs the bulk operations of one session. Mutations go to
// the backend; on success the controller reloads the current mode so
// the view reflects them. The analyze hand-off writes to the hand-off
// store only and triggers neither request nor reload.
type Dispatcher struct {
	API        API
	Controller *Controller
	Handoff    handoff.Store
	HandoffKey string
	HandoffTTL time.Duration
	Logger     *zap.Logger
}

// ParseCodes splits a pasted code block on whitespace, commas, and
// semicolons, full-width variants included, dropping duplicates
// case-insensitively while keeping first-seen order.
func ParseCodes(block string) []string {
	fields := strings.FieldsFunc(block, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '，' || r == '；' || r == '、'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToUpper(f)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Add parses the code block, resolves the target category by name
// (creating it when absent), and bulk-adds the codes. An empty name
// falls back to the category the view is currently scoped to.
func (d *Dispatcher) Add(ctx context.Context, block, categoryName, onConflict string) (*models.Category, int, error) {
	codes := ParseCodes(block)
	if len(codes) == 0 {
		return nil, 0, ErrNoCodes
	}
	onConflict = strings.TrimSpace(strings.ToLower(onConflict))
	if onConflict == "" {
		onConflict = upstream.OnConflictIgnore
	}
	if onConflict != upstream.OnConflictIgnore && onConflict != upstream.OnConflictMove {
		return nil, 0, ErrBadOnConflict
	}

	category, err := d.targetCategory(ctx, categoryName)
	if err != nil {
		return nil, 0, err
	}
	if err := d.API.BulkAdd(ctx, codes, category.ID, onConflict); err != nil {
		return nil, 0, err
	}
	d.reload("add", zap.Int("codes", len(codes)), zap.Int64("category_id", category.ID))
	return category, len(codes), nil
}

// Recategorize moves the selected rows into exactly one category.
func (d *Dispatcher) Recategorize(ctx context.Context, categoryIDs []int64) error {
	ids, err := d.selection()
	if err != nil {
		return err
	}
	if len(categoryIDs) != 1 {
		return ErrExactlyOneCategory
	}
	if err := d.API.BulkSetCategory(ctx, ids, categoryIDs[0]); err != nil {
		return err
	}
	d.reload("recategorize", zap.Int("rows", len(ids)))
	return nil
}

// AddToCategories attaches the selected rows to one or more categories.
func (d *Dispatcher) AddToCategories(ctx context.Context, categoryIDs []int64) error {
	ids, err := d.selection()
	if err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return ErrNoTargetCategory
	}
	if err := d.API.BulkAddCategories(ctx, ids, categoryIDs); err != nil {
		return err
	}
	d.reload("add_to_categories", zap.Int("rows", len(ids)))
	return nil
}

// RemoveFromCategories detaches the selected rows from one or more
// categories.
func (d *Dispatcher) RemoveFromCategories(ctx context.Context, categoryIDs []int64) error {
	ids, err := d.selection()
	if err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return ErrNoTargetCategory
	}
	if err := d.API.BulkRemoveCategories(ctx, ids, categoryIDs); err != nil {
		return err
	}
	d.reload("remove_from_categories", zap.Int("rows", len(ids)))
	return nil
}

// Delete removes the selected rows from the watchlist. The confirmed
// flag must be set; the UI asks before calling.
func (d *Dispatcher) Delete(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmRequired
	}
	ids, err := d.selection()
	if err != nil {
		return err
	}
	if err := d.API.BulkDelete(ctx, ids); err != nil {
		return err
	}
	d.reload("delete", zap.Int("rows", len(ids)))
	return nil
}

// HandOff writes the display codes of the selected rows to the
// hand-off store for the analysis page to pick up. It neither calls
// the backend nor reloads the view.
func (d *Dispatcher) HandOff(ctx context.Context) ([]string, error) {
	snap := d.Controller.View()
	if len(snap.Selected) == 0 {
		return nil, ErrNothingSelected
	}
	byID := make(map[int64]*models.Record, len(snap.Items))
	for i := range snap.Items {
		byID[snap.Items[i].ID] = &snap.Items[i]
	}
	codes := make([]string, 0, len(snap.Selected))
	for _, id := range snap.Selected {
		if r, ok := byID[id]; ok {
			codes = append(codes, r.DisplayCode())
		}
	}
	if len(codes) == 0 {
		return nil, ErrNothingSelected
	}
	if err := d.Handoff.Put(ctx, d.HandoffKey, codes, d.HandoffTTL); err != nil {
		return nil, err
	}
	return codes, nil
}

func (d *Dispatcher) selection() ([]int64, error) {
	snap := d.Controller.View()
	if len(snap.Selected) == 0 {
		return nil, ErrNothingSelected
	}
	return snap.Selected, nil
}

// targetCategory resolves a category by name, case-insensitively,
// creating it when no match exists. An empty name means the current
// category scope.
func (d *Dispatcher) targetCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		crit := d.Controller.View().Criteria
		if crit.CategoryID == nil {
			return nil, ErrNoTargetCategory
		}
		return &models.Category{ID: *crit.CategoryID}, nil
	}
	categories, err := d.API.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i], nil
		}
	}
	return d.API.CreateCategory(ctx, name)
}

func (d *Dispatcher) reload(op string, fields ...zap.Field) {
	snap := d.Controller.Reload()
	if snap.Error != "" && d.Logger != nil {
		d.Logger.Warn("reload after bulk operation failed",
			append(fields, zap.String("op", op), zap.String("error", snap.Error))...)
	}
}
