package harvest

// GainBucket is the part of a position held for one holding period.
// Gain is what selling that part would realise: positive is a profit,
// negative a loss.
type GainBucket struct {
	Balance float64 `json:"balance"`
	Gain    Amount  `json:"gain"`
}

// Holding represents one owned asset position. Coin is the identity.
type Holding struct {
	Coin            string     `json:"coin"`
	CoinName        string     `json:"coinName"`
	Logo            string     `json:"logo"`
	CurrentPrice    Amount     `json:"currentPrice"`
	TotalHolding    float64    `json:"totalHolding"`
	AverageBuyPrice Amount     `json:"averageBuyPrice"`
	STCG            GainBucket `json:"stcg"`
	LTCG            GainBucket `json:"ltcg"`
}

// Value returns the current market value of the whole position.
func (h Holding) Value() Amount {
	return h.CurrentPrice.Mul(NewAmount(h.TotalHolding))
}

// Totals holds realised profits and losses for one bucket. Both are
// non-negative magnitudes.
type Totals struct {
	Profits Amount `json:"profits"`
	Losses  Amount `json:"losses"`
}

// Net returns profits minus losses; it may be negative.
func (t Totals) Net() Amount {
	return t.Profits.Sub(t.Losses)
}

// CapitalGains aggregates realised gains for the short-term and long-term
// buckets.
type CapitalGains struct {
	STCG Totals `json:"stcg"`
	LTCG Totals `json:"ltcg"`
}

// Clone returns a field-by-field copy. Decimal values are immutable, so
// copying the struct is a full structural copy.
func (c CapitalGains) Clone() CapitalGains {
	return CapitalGains{
		STCG: Totals{Profits: c.STCG.Profits, Losses: c.STCG.Losses},
		LTCG: Totals{Profits: c.LTCG.Profits, Losses: c.LTCG.Losses},
	}
}

// Equal reports structural equality of all four figures.
func (c CapitalGains) Equal(o CapitalGains) bool {
	return c.STCG.Profits.Equal(o.STCG.Profits) &&
		c.STCG.Losses.Equal(o.STCG.Losses) &&
		c.LTCG.Profits.Equal(o.LTCG.Profits) &&
		c.LTCG.Losses.Equal(o.LTCG.Losses)
}

// Net returns the combined net gain of both buckets.
func (c CapitalGains) Net() Amount {
	return c.STCG.Net().Add(c.LTCG.Net())
}

// CapitalGainsEnvelope is the wire shape served by the capital-gains
// provider endpoint.
type CapitalGainsEnvelope struct {
	CapitalGains CapitalGains `json:"capitalGains"`
}

func cloneCapitalGainsPtr(c *CapitalGains) *CapitalGains {
	if c == nil {
		return nil
	}
	copied := c.Clone()
	return &copied
}

func indexHoldings(holdings []Holding) map[string]Holding {
	index := make(map[string]Holding, len(holdings))
	for _, h := range holdings {
		index[h.Coin] = h
	}
	return index
}
