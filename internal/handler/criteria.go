package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockwatch/internal/query"
	"stockwatch/internal/watchlist"
)

type numericFilterRequest struct {
	Enabled   bool   `json:"enabled"`
	Op        string `json:"op"`
	Threshold string `json:"threshold"`
}

type dateFilterRequest struct {
	Enabled   bool   `json:"enabled"`
	Op        string `json:"op"`
	Threshold string `json:"threshold"`
}

type predicateRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Categories string `json:"categories"`
	Rating     string `json:"rating"`

	Last       *numericFilterRequest `json:"last"`
	PctChange  *numericFilterRequest `json:"pct_change"`
	Open       *numericFilterRequest `json:"open"`
	PrevClose  *numericFilterRequest `json:"prev_close"`
	High       *numericFilterRequest `json:"high"`
	Low        *numericFilterRequest `json:"low"`
	VolumeLots *numericFilterRequest `json:"volume_lots"`
	Amount     *numericFilterRequest `json:"amount"`

	CreatedAt    *dateFilterRequest `json:"created_at"`
	LastAnalysis *dateFilterRequest `json:"last_analysis"`
}

type criteriaRequest struct {
	CategoryID *int64            `json:"category_id"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	SortBy     string            `json:"sort_by"`
	SortDir    string            `json:"sort_dir"`
	Search     bool              `json:"search"`
	Predicate  *predicateRequest `json:"predicate"`
}

// toCriteria validates the request and builds engine criteria from it.
// Omitted filters stay disabled; a bad sort key, operator, or threshold
// rejects the whole request.
func (req criteriaRequest) toCriteria() (watchlist.Criteria, error) {
	crit := watchlist.Criteria{
		CategoryID: req.CategoryID,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortDir:    strings.ToLower(strings.TrimSpace(req.SortDir)),
		Search:     req.Search,
	}
	if v := strings.TrimSpace(req.SortBy); v != "" {
		key, ok := query.ParseSortKey(v)
		if !ok {
			return watchlist.Criteria{}, fmt.Errorf("invalid sort_by %q", v)
		}
		crit.SortBy = key
	}
	if req.Predicate == nil {
		return crit, nil
	}

	p := query.Predicate{
		Code:       req.Predicate.Code,
		Name:       req.Predicate.Name,
		Categories: req.Predicate.Categories,
		Rating:     req.Predicate.Rating,
	}
	numerics := []struct {
		field string
		src   *numericFilterRequest
		dst   *query.NumericFilter
	}{
		{"last", req.Predicate.Last, &p.Last},
		{"pct_change", req.Predicate.PctChange, &p.PctChange},
		{"open", req.Predicate.Open, &p.Open},
		{"prev_close", req.Predicate.PrevClose, &p.PrevClose},
		{"high", req.Predicate.High, &p.High},
		{"low", req.Predicate.Low, &p.Low},
		{"volume_lots", req.Predicate.VolumeLots, &p.VolumeLots},
		{"amount", req.Predicate.Amount, &p.Amount},
	}
	for _, n := range numerics {
		f, err := toNumericFilter(n.field, n.src)
		if err != nil {
			return watchlist.Criteria{}, err
		}
		*n.dst = f
	}
	dates := []struct {
		field string
		src   *dateFilterRequest
		dst   *query.DateFilter
	}{
		{"created_at", req.Predicate.CreatedAt, &p.CreatedAt},
		{"last_analysis", req.Predicate.LastAnalysis, &p.LastAnalysis},
	}
	for _, d := range dates {
		f, err := toDateFilter(d.field, d.src)
		if err != nil {
			return watchlist.Criteria{}, err
		}
		*d.dst = f
	}
	crit.Predicate = p
	return crit, nil
}

func toNumericFilter(field string, req *numericFilterRequest) (query.NumericFilter, error) {
	if req == nil || !req.Enabled {
		return query.NumericFilter{}, nil
	}
	op, ok := query.ParseOp(req.Op)
	if !ok {
		return query.NumericFilter{}, fmt.Errorf("invalid op %q for %s", req.Op, field)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(req.Threshold))
	if err != nil {
		return query.NumericFilter{}, fmt.Errorf("invalid threshold %q for %s", req.Threshold, field)
	}
	return query.NumericFilter{Enabled: true, Op: op, Threshold: d}, nil
}

func toDateFilter(field string, req *dateFilterRequest) (query.DateFilter, error) {
	if req == nil || !req.Enabled {
		return query.DateFilter{}, nil
	}
	op, ok := query.ParseOp(req.Op)
	if !ok {
		return query.DateFilter{}, fmt.Errorf("invalid op %q for %s", req.Op, field)
	}
	threshold := strings.TrimSpace(req.Threshold)
	if threshold != "" {
		if _, err := time.Parse("2006-01-02", threshold); err != nil {
			return query.DateFilter{}, fmt.Errorf("invalid threshold %q for %s, want YYYY-MM-DD", req.Threshold, field)
		}
	}
	return query.DateFilter{Enabled: true, Op: op, Threshold: threshold}, nil
}
