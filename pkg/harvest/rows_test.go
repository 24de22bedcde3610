package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowCoins(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Coin)
	}
	return out
}

func TestBuildRows(t *testing.T) {
	holdings := testHoldings()
	holdings[0].TotalHolding = 0.63776
	rows := BuildRows(holdings, NewSelection("BTC", "GHOST"))

	require.Len(t, rows, len(holdings))
	assert.Equal(t, []string{"BTC", "USDT", "WPOL", "ZERO"}, rowCoins(rows))
	assert.True(t, rows[0].Selected)
	require.NotNil(t, rows[0].AmountToSell)
	assert.Equal(t, 0.63776, *rows[0].AmountToSell)
	assert.False(t, rows[1].Selected)
	assert.Nil(t, rows[1].AmountToSell)
	assert.InDelta(t, 0.63776, rows[0].MarketValue.Float64(), 1e-9)
}

func TestSortRows(t *testing.T) {
	rows := BuildRows(testHoldings(), Selection{})

	SortRows(rows, "stcg", false)
	assert.Equal(t, []string{"BTC", "USDT", "ZERO", "WPOL"}, rowCoins(rows))

	SortRows(rows, "ltcg", true)
	assert.Equal(t, []string{"BTC", "USDT", "WPOL", "ZERO"}, rowCoins(rows))

	SortRows(rows, "asset", true)
	assert.Equal(t, []string{"ZERO", "WPOL", "USDT", "BTC"}, rowCoins(rows))

	SortRows(rows, "bogus", false)
	assert.Equal(t, []string{"ZERO", "WPOL", "USDT", "BTC"}, rowCoins(rows))
}

func TestSortRowsDoesNotTouchStoreOrder(t *testing.T) {
	s := loadedStore(t)
	st := s.Snapshot()
	rows := BuildRows(st.Holdings, st.Selected)
	SortRows(rows, "asset", true)
	assert.Equal(t, "BTC", s.Snapshot().Holdings[0].Coin)
}
