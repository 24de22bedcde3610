package report

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"taxharvest/pkg/harvest"
)

func testState(t *testing.T) harvest.State {
	t.Helper()
	s := harvest.NewStore(harvest.StoreOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	s.ReplaceCapitalGains(harvest.CapitalGains{
		STCG: harvest.Totals{Profits: harvest.MustAmount("70200.88"), Losses: harvest.MustAmount("1548.53")},
		LTCG: harvest.Totals{Profits: harvest.MustAmount("5020"), Losses: harvest.MustAmount("3050")},
	})
	s.ReplaceHoldings([]harvest.Holding{
		{
			Coin: "BTC", CoinName: "Bitcoin", CurrentPrice: harvest.MustAmount("100"), TotalHolding: 2,
			STCG: harvest.GainBucket{Balance: 2, Gain: harvest.MustAmount("-20000")},
			LTCG: harvest.GainBucket{Gain: harvest.MustAmount("2400")},
		},
		{
			Coin: "ETH", CoinName: "Ethereum", CurrentPrice: harvest.MustAmount("10"), TotalHolding: 1,
			STCG: harvest.GainBucket{Balance: 1, Gain: harvest.MustAmount("5")},
		},
	})
	s.Toggle("BTC")
	return s.Snapshot()
}

func TestGenerateWorkbook(t *testing.T) {
	data, err := New(nil).Generate(context.Background(), testState(t))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetHoldings, SheetCapitalGains}, f.GetSheetList())

	rows, err := f.GetRows(SheetHoldings)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Asset", rows[0][0])
	assert.Equal(t, "Bitcoin", rows[1][0])
	assert.Equal(t, "200", rows[1][4])
	assert.Equal(t, "TRUE", rows[1][7])
	assert.Equal(t, "2", rows[1][8])
	assert.Equal(t, "FALSE", rows[2][7])

	label, err := f.GetCellValue(SheetCapitalGains, "A10")
	require.NoError(t, err)
	assert.Equal(t, "Effective capital gains", label)

	realised, err := f.GetCellValue(SheetCapitalGains, "B9")
	require.NoError(t, err)
	assert.Equal(t, "70622.35", realised)

	savings, err := f.GetCellValue(SheetCapitalGains, "A11")
	require.NoError(t, err)
	assert.Equal(t, "Savings", savings)
}

func TestGenerateRequiresCapitalGains(t *testing.T) {
	_, err := New(nil).Generate(context.Background(), harvest.State{})
	assert.True(t, harvest.IsErrorCode(err, harvest.ErrCodeInvalidInput))
}

func TestGenerateHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Generate(ctx, testState(t))
	assert.ErrorIs(t, err, context.Canceled)
}
