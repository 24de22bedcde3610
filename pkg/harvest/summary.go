package harvest

// NetGains is the net (profits minus losses) per bucket and combined.
type NetGains struct {
	STCG  Amount `json:"stcg"`
	LTCG  Amount `json:"ltcg"`
	Total Amount `json:"total"`
}

func netOf(c CapitalGains) NetGains {
	return NetGains{
		STCG:  c.STCG.Net(),
		LTCG:  c.LTCG.Net(),
		Total: c.Net(),
	}
}

// Summary compares pre-harvest and after-harvest figures.
type Summary struct {
	Pre         NetGains `json:"pre"`
	After       NetGains `json:"after"`
	Realised    Amount   `json:"realised"`
	Effective   Amount   `json:"effective"`
	Savings     Amount   `json:"savings"`
	ShowSavings bool     `json:"showSavings"`
}

// Summarize derives the net figures shown on the two capital-gains cards.
// Savings is only meaningful when ShowSavings is set, i.e. when harvesting
// lowers the effective gain.
func Summarize(base, after CapitalGains) Summary {
	pre := netOf(base)
	post := netOf(after)
	return Summary{
		Pre:         pre,
		After:       post,
		Realised:    pre.Total,
		Effective:   post.Total,
		Savings:     pre.Total.Sub(post.Total),
		ShowSavings: pre.Total.GreaterThan(post.Total),
	}
}
