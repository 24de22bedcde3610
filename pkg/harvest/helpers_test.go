package harvest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testBase is the pre-harvest snapshot used throughout the scenarios.
func testBase() CapitalGains {
	return CapitalGains{
		STCG: Totals{Profits: MustAmount("70200.88"), Losses: MustAmount("1548.53")},
		LTCG: Totals{Profits: MustAmount("5020"), Losses: MustAmount("3050")},
	}
}

func testHolding(coin, stcgGain, ltcgGain string) Holding {
	return Holding{
		Coin:            coin,
		CoinName:        coin,
		CurrentPrice:    MustAmount("1"),
		TotalHolding:    1,
		AverageBuyPrice: MustAmount("1"),
		STCG:            GainBucket{Balance: 1, Gain: MustAmount(stcgGain)},
		LTCG:            GainBucket{Balance: 0, Gain: MustAmount(ltcgGain)},
	}
}

func testHoldings() []Holding {
	return []Holding{
		testHolding("BTC", "-20000", "2400"),
		testHolding("USDT", "-1200", "2400"),
		testHolding("WPOL", "49.954151016387065", "20"),
		testHolding("ZERO", "0", "0"),
	}
}

type stubSource struct {
	holdings    []Holding
	gains       CapitalGains
	holdingsErr error
	gainsErr    error

	mu    sync.Mutex
	calls map[string]int
}

func (s *stubSource) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
}

func (s *stubSource) FetchHoldings(ctx context.Context) ([]Holding, error) {
	s.record("holdings")
	if s.holdingsErr != nil {
		return nil, s.holdingsErr
	}
	return s.holdings, nil
}

func (s *stubSource) FetchCapitalGains(ctx context.Context) (CapitalGains, error) {
	s.record("gains")
	if s.gainsErr != nil {
		return CapitalGains{}, s.gainsErr
	}
	return s.gains, nil
}

var errBoom = errors.New("boom")
