package query

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"stockwatch/internal/models"
)

// SortKey names a record field the view can be ordered by. Persistent keys
// are orderable by the remote endpoint; realtime keys exist only in the
// locally held quote snapshot and are always sorted client-side.
type SortKey string

const (
	SortCode         SortKey = "code"
	SortName         SortKey = "name"
	SortCategory     SortKey = "category"
	SortCreatedAt    SortKey = "created_at"
	SortUpdatedAt    SortKey = "updated_at"
	SortLastAnalysis SortKey = "last_analysis_time"
	SortLastRating   SortKey = "last_rating"

	SortLast       SortKey = "last"
	SortPctChange  SortKey = "pct_change"
	SortOpen       SortKey = "open"
	SortPrevClose  SortKey = "prev_close"
	SortHigh       SortKey = "high"
	SortLow        SortKey = "low"
	SortVolumeLots SortKey = "volume_lots"
	SortAmount     SortKey = "amount"
)

var persistentKeys = map[SortKey]struct{}{
	SortCode:         {},
	SortName:         {},
	SortCategory:     {},
	SortCreatedAt:    {},
	SortUpdatedAt:    {},
	SortLastAnalysis: {},
	SortLastRating:   {},
}

var realtimeKeys = map[SortKey]struct{}{
	SortLast:       {},
	SortPctChange:  {},
	SortOpen:       {},
	SortPrevClose:  {},
	SortHigh:       {},
	SortLow:        {},
	SortVolumeLots: {},
	SortAmount:     {},
}

func (k SortKey) Persistent() bool {
	_, ok := persistentKeys[k]
	return ok
}

func (k SortKey) Realtime() bool {
	_, ok := realtimeKeys[k]
	return ok
}

func ParseSortKey(value string) (SortKey, bool) {
	k := SortKey(strings.TrimSpace(strings.ToLower(value)))
	if k.Persistent() || k.Realtime() {
		return k, true
	}
	return "", false
}

// Compare is a total order over records for one sort key and direction.
// String keys compare lower-cased, realtime keys numerically. A record
// missing the realtime value sorts after any record that has one, in both
// directions; desc negates only the primary comparison. Every tie, the
// nulls branch included, falls back to display code ascending so repeated
// sorts of one set are reproducible and page boundaries stay stable.
func Compare(a, b *models.Record, key SortKey, desc bool) int {
	c := 0
	if key.Realtime() {
		av := realtimeValue(a, key)
		bv := realtimeValue(b, key)
		switch {
		case av == nil && bv == nil:
			c = 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		default:
			c = av.Cmp(*bv)
			if desc {
				c = -c
			}
		}
	} else {
		c = strings.Compare(stringValue(a, key), stringValue(b, key))
		if desc {
			c = -c
		}
	}
	if c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.DisplayCode()), strings.ToLower(b.DisplayCode()))
}

// Sort orders records in place. The stable variant keeps input order for
// records whose display codes collide as well, so the result is fully
// deterministic for a fixed input.
func Sort(records []models.Record, key SortKey, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		return Compare(&records[i], &records[j], key, desc) < 0
	})
}

func realtimeValue(r *models.Record, key SortKey) *decimal.Decimal {
	switch key {
	case SortLast:
		return r.Last
	case SortPctChange:
		return r.PctChange
	case SortOpen:
		return r.Open
	case SortPrevClose:
		return r.PrevClose
	case SortHigh:
		return r.High
	case SortLow:
		return r.Low
	case SortVolumeLots:
		return r.VolumeLots
	case SortAmount:
		return r.Amount
	default:
		return nil
	}
}

func stringValue(r *models.Record, key SortKey) string {
	switch key {
	case SortCode:
		return strings.ToLower(r.DisplayCode())
	case SortName:
		return strings.ToLower(r.Name)
	case SortCategory:
		return strings.ToLower(r.CategoryNames)
	case SortCreatedAt:
		return strings.ToLower(strDeref(r.CreatedAt))
	case SortUpdatedAt:
		return strings.ToLower(strDeref(r.UpdatedAt))
	case SortLastAnalysis:
		return strings.ToLower(strDeref(r.LastAnalysisTime))
	case SortLastRating:
		return strings.ToLower(strDeref(r.LastRating))
	default:
		return ""
	}
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
