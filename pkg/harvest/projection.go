package harvest

// Project computes capital gains as if every selected holding were sold in
// full on top of base. A nil base yields nil: there is nothing to project
// before the first capital-gains snapshot arrives.
//
// Selected identities missing from index are skipped and returned, sorted,
// so the caller can report them. base is never modified.
func Project(base *CapitalGains, index map[string]Holding, selected Selection) (*CapitalGains, []string) {
	if base == nil {
		return nil, nil
	}

	projected := base.Clone()
	var dangling []string
	for _, id := range selected.Members() {
		holding, ok := index[id]
		if !ok {
			dangling = append(dangling, id)
			continue
		}
		realise(&projected.STCG, holding.STCG.Gain)
		realise(&projected.LTCG, holding.LTCG.Gain)
	}
	return &projected, dangling
}

// realise routes a signed gain into profits or losses. Zero touches neither.
func realise(t *Totals, gain Amount) {
	switch {
	case gain.IsPositive():
		t.Profits = t.Profits.Add(gain)
	case gain.IsNegative():
		t.Losses = t.Losses.Add(gain.Abs())
	}
}
