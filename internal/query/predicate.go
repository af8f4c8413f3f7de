package query

import (
	"strings"

	"github.com/shopspring/decimal"

	"stockwatch/internal/models"
)

// Op is a threshold comparison operator.
type Op string

const (
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpGT  Op = ">"
	OpLT  Op = "<"
	OpEQ  Op = "="
)

func ParseOp(value string) (Op, bool) {
	switch Op(strings.TrimSpace(value)) {
	case OpGTE:
		return OpGTE, true
	case OpLTE:
		return OpLTE, true
	case OpGT:
		return OpGT, true
	case OpLT:
		return OpLT, true
	case OpEQ, "":
		return OpEQ, true
	default:
		return "", false
	}
}

func (op Op) holds(cmp int) bool {
	switch op {
	case OpGTE:
		return cmp >= 0
	case OpLTE:
		return cmp <= 0
	case OpGT:
		return cmp > 0
	case OpLT:
		return cmp < 0
	case OpEQ:
		return cmp == 0
	default:
		return false
	}
}

// NumericFilter compares a quote field against a threshold. Disabled filters
// are vacuously true; an enabled filter never matches a missing value.
type NumericFilter struct {
	Enabled   bool            `json:"enabled"`
	Op        Op              `json:"op"`
	Threshold decimal.Decimal `json:"threshold"`
}

func (f NumericFilter) matches(value *decimal.Decimal) bool {
	if !f.Enabled {
		return true
	}
	if value == nil {
		return false
	}
	return f.Op.holds(value.Cmp(f.Threshold))
}

func (f NumericFilter) active() bool {
	return f.Enabled
}

// DateFilter compares the date-only prefix of a timestamp string against a
// YYYY-MM-DD threshold. Disabled or empty-threshold filters are vacuously
// true; an enabled filter never matches a missing timestamp.
type DateFilter struct {
	Enabled   bool   `json:"enabled"`
	Op        Op     `json:"op"`
	Threshold string `json:"threshold"`
}

func (f DateFilter) matches(ts *string) bool {
	threshold := strings.TrimSpace(f.Threshold)
	if !f.Enabled || threshold == "" {
		return true
	}
	if ts == nil {
		return false
	}
	return f.Op.holds(strings.Compare(dateOnly(*ts), threshold))
}

func (f DateFilter) active() bool {
	return f.Enabled && strings.TrimSpace(f.Threshold) != ""
}

func dateOnly(ts string) string {
	ts = strings.TrimSpace(ts)
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

// Predicate is the composite search filter: four substring clauses, one
// numeric filter per quote field, and two date filters. All clauses AND
// together.
type Predicate struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Categories string `json:"categories"`
	Rating     string `json:"rating"`

	Last       NumericFilter `json:"last"`
	PctChange  NumericFilter `json:"pct_change"`
	Open       NumericFilter `json:"open"`
	PrevClose  NumericFilter `json:"prev_close"`
	High       NumericFilter `json:"high"`
	Low        NumericFilter `json:"low"`
	VolumeLots NumericFilter `json:"volume_lots"`
	Amount     NumericFilter `json:"amount"`

	CreatedAt    DateFilter `json:"created_at"`
	LastAnalysis DateFilter `json:"last_analysis"`
}

// Matches reports whether the record passes every clause. Pure; no side
// effects.
func (p *Predicate) Matches(r *models.Record) bool {
	if !textContains(r.Code, p.Code) {
		return false
	}
	if !textContains(r.Name, p.Name) {
		return false
	}
	if !textContains(r.CategoryNames, p.Categories) {
		return false
	}
	if !textContains(strDeref(r.LastRating), p.Rating) {
		return false
	}
	if !p.Last.matches(r.Last) {
		return false
	}
	if !p.PctChange.matches(r.PctChange) {
		return false
	}
	if !p.Open.matches(r.Open) {
		return false
	}
	if !p.PrevClose.matches(r.PrevClose) {
		return false
	}
	if !p.High.matches(r.High) {
		return false
	}
	if !p.Low.matches(r.Low) {
		return false
	}
	if !p.VolumeLots.matches(r.VolumeLots) {
		return false
	}
	if !p.Amount.matches(r.Amount) {
		return false
	}
	if !p.CreatedAt.matches(r.CreatedAt) {
		return false
	}
	if !p.LastAnalysis.matches(r.LastAnalysisTime) {
		return false
	}
	return true
}

// Empty reports whether no clause can exclude anything. A filter that is
// enabled but has an empty threshold counts as inactive.
func (p *Predicate) Empty() bool {
	if strings.TrimSpace(p.Code) != "" ||
		strings.TrimSpace(p.Name) != "" ||
		strings.TrimSpace(p.Categories) != "" ||
		strings.TrimSpace(p.Rating) != "" {
		return false
	}
	numeric := []NumericFilter{
		p.Last, p.PctChange, p.Open, p.PrevClose,
		p.High, p.Low, p.VolumeLots, p.Amount,
	}
	for _, f := range numeric {
		if f.active() {
			return false
		}
	}
	if p.CreatedAt.active() || p.LastAnalysis.active() {
		return false
	}
	return true
}

// textContains is the substring clause: empty input passes everything, else
// a case-insensitive contains test. The display code is a prefix of the raw
// code, so matching the raw code covers both forms.
func textContains(field, input string) bool {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), input)
}
