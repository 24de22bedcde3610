package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeWithLossHarvest(t *testing.T) {
	base := testBase()
	after, _ := Project(&base, indexHoldings(testHoldings()), NewSelection("BTC"))
	require.NotNil(t, after)

	s := Summarize(base, *after)
	assert.True(t, s.Realised.Equal(MustAmount("70622.35")), "realised %s", s.Realised)
	// stcg net 70200.88-21548.53 = 48652.35, ltcg net 7420-3050 = 4370
	assert.True(t, s.After.STCG.Equal(MustAmount("48652.35")))
	assert.True(t, s.After.LTCG.Equal(MustAmount("4370")))
	assert.True(t, s.Effective.Equal(MustAmount("53022.35")))
	assert.True(t, s.Savings.Equal(MustAmount("17600")))
	assert.True(t, s.ShowSavings)
}

func TestSummarizeWithoutSavings(t *testing.T) {
	base := testBase()
	after, _ := Project(&base, indexHoldings(testHoldings()), NewSelection("WPOL"))
	require.NotNil(t, after)

	s := Summarize(base, *after)
	assert.False(t, s.ShowSavings)
	assert.True(t, s.Savings.IsNegative())

	same := Summarize(base, base.Clone())
	assert.False(t, same.ShowSavings)
	assert.True(t, same.Savings.IsZero())
}

func TestStateSummary(t *testing.T) {
	s := loadedStore(t)
	s.Toggle("USDT")
	sum := s.Snapshot().Summary()
	require.NotNil(t, sum)
	// -1200 stcg and +2400 ltcg: net +1200.
	assert.True(t, sum.Savings.Equal(MustAmount("-1200")))
}
