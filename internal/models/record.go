package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one tracked instrument as returned by the analysis API.
// Records are never built locally; every reload replaces them wholesale,
// so membership edits only become visible after the next reload.
type Record struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	CategoryNames string `json:"category_names"`

	CreatedAt        *string `json:"created_at"`
	UpdatedAt        *string `json:"updated_at"`
	LastAnalysisTime *string `json:"last_analysis_time"`
	LastRating       *string `json:"last_rating"`

	// Realtime quote snapshot; each field is independently absent.
	Last       *decimal.Decimal `json:"last"`
	PctChange  *decimal.Decimal `json:"pct_change"`
	Open       *decimal.Decimal `json:"open"`
	PrevClose  *decimal.Decimal `json:"prev_close"`
	High       *decimal.Decimal `json:"high"`
	Low        *decimal.Decimal `json:"low"`
	VolumeLots *decimal.Decimal `json:"volume_lots"`
	Amount     *decimal.Decimal `json:"amount"`
}

// DisplayCode strips the trailing market suffix from an exchange-qualified
// symbol ("600519.SH" -> "600519"). Display codes drive every user-facing
// string comparison and the sort tie-break.
func DisplayCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '.'); i >= 0 {
		return code[:i]
	}
	return code
}

func (r *Record) DisplayCode() string {
	return DisplayCode(r.Code)
}
