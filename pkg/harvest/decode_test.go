package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCapitalGains(t *testing.T) {
	cg, err := DecodeCapitalGains([]byte(`{"capitalGains":{"stcg":{"profits":70200.88,"losses":1548.53},"ltcg":{"profits":5020,"losses":3050}}}`))
	require.NoError(t, err)
	assert.True(t, cg.Equal(testBase()))

	for _, body := range []string{
		`{"stcg":{"profits":70200.88,"losses":1548.53},"ltcg":{"profits":5020,"losses":3050}}`,
		`{}`,
		`{"capitalGains":null}`,
		`{"capitalGains":{"stcg":{"profits":-1,"losses":0},"ltcg":{"profits":0,"losses":0}}}`,
		`not json`,
	} {
		_, err := DecodeCapitalGains([]byte(body))
		assert.True(t, IsErrorCode(err, ErrCodeDecode), body)
	}
}

func TestDecodeHoldings(t *testing.T) {
	holdings, err := DecodeHoldings([]byte(`[` + solJSON + `]`))
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, 3.469446951953614e-17, holdings[0].TotalHolding)

	holdings, err = DecodeHoldings([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, holdings)
	assert.Empty(t, holdings)

	for _, body := range []string{
		`null`,
		`{"coin":"BTC"}`,
		`[{"coin":""}]`,
		`[{"coin":"BTC","totalHolding":-1}]`,
		`[{"coin":"BTC","stcg":{"balance":-0.5,"gain":0}}]`,
		`[{"coin":"BTC","currentPrice":-3}]`,
	} {
		_, err := DecodeHoldings([]byte(body))
		assert.True(t, IsErrorCode(err, ErrCodeDecode), body)
	}
}
