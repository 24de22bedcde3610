package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"taxharvest/pkg/harvest"
)

const (
	SheetHoldings     = "Holdings"
	SheetCapitalGains = "Capital Gains"

	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var holdingsHeader = []any{
	"Asset", "Coin", "Holding", "Current Price", "Value",
	"Short-term Gain", "Long-term Gain", "Selected", "Amount to Sell",
}

// Generator renders a harvest state as an xlsx workbook.
type Generator struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate builds the workbook. Base capital gains must be known.
func (g *Generator) Generate(ctx context.Context, st harvest.State) ([]byte, error) {
	if st.CapitalGains == nil || st.AfterHarvesting == nil {
		return nil, harvest.NewError(harvest.ErrCodeInvalidInput, "capital gains not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.logger.Debug("report generate start", "version", st.Version, "holdings", len(st.Holdings))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			g.logger.Error("got error while closing workbook", "err", err)
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#cfe2f3"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := fillHoldings(f, st, headerStyle); err != nil {
		return nil, err
	}
	if err := fillCapitalGains(f, st, headerStyle); err != nil {
		return nil, err
	}

	if idx, err := f.GetSheetIndex(SheetHoldings); err == nil {
		f.SetActiveSheet(idx)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		g.logger.Warn("got error while deleting Sheet1", "err", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		g.logger.Error("got error while writing workbook", "err", err)
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	g.logger.Debug("report generate completed", "bytes", buf.Len())
	return buf.Bytes(), nil
}

func fillHoldings(f *excelize.File, st harvest.State, headerStyle int) error {
	if _, err := f.NewSheet(SheetHoldings); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetHoldings, err)
	}
	if err := f.SetSheetRow(SheetHoldings, "A1", &holdingsHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetHoldings, "A1", "I1", headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, row := range harvest.BuildRows(st.Holdings, st.Selected) {
		var toSell any
		if row.AmountToSell != nil {
			toSell = *row.AmountToSell
		}
		values := []any{
			row.CoinName,
			row.Coin,
			row.TotalHolding,
			row.CurrentPrice.Float64(),
			row.MarketValue.Float64(),
			row.STCG.Gain.Float64(),
			row.LTCG.Gain.Float64(),
			row.Selected,
			toSell,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetHoldings, cell, &values); err != nil {
			return fmt.Errorf("write holding %s: %w", row.Coin, err)
		}
	}
	return f.SetColWidth(SheetHoldings, "A", "I", 18)
}

func fillCapitalGains(f *excelize.File, st harvest.State, headerStyle int) error {
	if _, err := f.NewSheet(SheetCapitalGains); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetCapitalGains, err)
	}
	base, after := *st.CapitalGains, *st.AfterHarvesting
	sum := harvest.Summarize(base, after)

	rows := [][]any{
		{"", "Short-term", "Long-term", "Total"},
		{"Pre-harvest profits", base.STCG.Profits.Float64(), base.LTCG.Profits.Float64(), nil},
		{"Pre-harvest losses", base.STCG.Losses.Float64(), base.LTCG.Losses.Float64(), nil},
		{"Pre-harvest net", sum.Pre.STCG.Float64(), sum.Pre.LTCG.Float64(), sum.Pre.Total.Float64()},
		{"After-harvest profits", after.STCG.Profits.Float64(), after.LTCG.Profits.Float64(), nil},
		{"After-harvest losses", after.STCG.Losses.Float64(), after.LTCG.Losses.Float64(), nil},
		{"After-harvest net", sum.After.STCG.Float64(), sum.After.LTCG.Float64(), sum.After.Total.Float64()},
		{},
		{"Realised capital gains", sum.Realised.Float64()},
		{"Effective capital gains", sum.Effective.Float64()},
	}
	if sum.ShowSavings {
		rows = append(rows, []any{"Savings", sum.Savings.Float64()})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetCapitalGains, cell, &rows[i]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetCapitalGains, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return f.SetColWidth(SheetCapitalGains, "A", "A", 26)
}
