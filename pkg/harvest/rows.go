package harvest

import (
	"sort"
	"strings"
)

// Row is a render-ready holdings table row.
type Row struct {
	Holding
	MarketValue  Amount   `json:"value"`
	Selected     bool     `json:"selected"`
	AmountToSell *float64 `json:"amountToSell"`
}

// Sort keys accepted by SortRows.
const (
	SortAsset   = "asset"
	SortHolding = "holding"
	SortValue   = "value"
	SortSTCG    = "stcg"
	SortLTCG    = "ltcg"
)

// BuildRows pairs each holding with its derived display fields, in fetch
// order. A selected row sells its entire position.
func BuildRows(holdings []Holding, selected Selection) []Row {
	rows := make([]Row, 0, len(holdings))
	for _, h := range holdings {
		row := Row{
			Holding:     h,
			MarketValue: h.Value(),
			Selected:    selected.Has(h.Coin),
		}
		if row.Selected {
			qty := h.TotalHolding
			row.AmountToSell = &qty
		}
		rows = append(rows, row)
	}
	return rows
}

// SortRows orders rows in place by key. Unknown or empty keys leave the
// fetch order untouched.
func SortRows(rows []Row, key string, desc bool) {
	var less func(a, b Row) bool
	switch strings.ToLower(strings.TrimSpace(key)) {
	case SortAsset:
		less = func(a, b Row) bool { return a.CoinName < b.CoinName }
	case SortHolding:
		less = func(a, b Row) bool { return a.TotalHolding < b.TotalHolding }
	case SortValue:
		less = func(a, b Row) bool { return a.MarketValue.LessThan(b.MarketValue.Decimal) }
	case SortSTCG:
		less = func(a, b Row) bool { return a.STCG.Gain.LessThan(b.STCG.Gain.Decimal) }
	case SortLTCG:
		less = func(a, b Row) bool { return a.LTCG.Gain.LessThan(b.LTCG.Gain.Decimal) }
	default:
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
