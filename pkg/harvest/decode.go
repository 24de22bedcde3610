package harvest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeHoldings parses a holdings feed body: a JSON array, possibly empty.
// Every holding is validated; the first invalid one fails the whole body.
func DecodeHoldings(data []byte) ([]Holding, error) {
	var holdings []Holding
	if err := json.Unmarshal(data, &holdings); err != nil {
		return nil, WrapError(ErrCodeDecode, "holdings", err)
	}
	if holdings == nil {
		// "null" is not an empty list.
		return nil, NewError(ErrCodeDecode, "holdings: expected a JSON array")
	}
	for i, h := range holdings {
		if err := ValidateHolding(h); err != nil {
			return nil, WrapError(ErrCodeDecode, fmt.Sprintf("holding %d", i), err)
		}
	}
	return holdings, nil
}

// DecodeCapitalGains parses a capital-gains feed body. The
// {"capitalGains": {...}} envelope is required.
func DecodeCapitalGains(data []byte) (CapitalGains, error) {
	var env struct {
		CapitalGains *CapitalGains `json:"capitalGains"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return CapitalGains{}, WrapError(ErrCodeDecode, "capital gains", err)
	}
	if env.CapitalGains == nil {
		return CapitalGains{}, NewError(ErrCodeDecode, `capital gains: missing "capitalGains" object`)
	}
	if err := ValidateCapitalGains(*env.CapitalGains); err != nil {
		return CapitalGains{}, WrapError(ErrCodeDecode, "capital gains", err)
	}
	return *env.CapitalGains, nil
}

// ValidateHolding checks the invariants of a single holding.
func ValidateHolding(h Holding) error {
	switch {
	case h.Coin == "":
		return errors.New("coin is required")
	case h.TotalHolding < 0:
		return fmt.Errorf("%s: totalHolding must be non-negative", h.Coin)
	case h.STCG.Balance < 0 || h.LTCG.Balance < 0:
		return fmt.Errorf("%s: bucket balances must be non-negative", h.Coin)
	case h.CurrentPrice.IsNegative() || h.AverageBuyPrice.IsNegative():
		return fmt.Errorf("%s: prices must be non-negative", h.Coin)
	}
	return nil
}

// ValidateCapitalGains rejects negative profits or losses.
func ValidateCapitalGains(cg CapitalGains) error {
	if err := validateTotals("stcg", cg.STCG); err != nil {
		return err
	}
	return validateTotals("ltcg", cg.LTCG)
}

func validateTotals(name string, t Totals) error {
	if t.Profits.IsNegative() || t.Losses.IsNegative() {
		return fmt.Errorf("%s: profits and losses are magnitudes and must be non-negative", name)
	}
	return nil
}
