package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		base  string
		quote string
	}{
		{"BTC/USDT", "BTC", "USDT"},
		{"btc/usdt", "BTC", "USDT"},
		{"BTCUSDT", "BTC", "USDT"},
		{"ETHBTC", "ETH", "BTC"},
		{"btc", "BTC", "USDT"},
		{" SOL ", "SOL", "USDT"},
		{"BTC/USDT:USDT", "BTC", "USDT"},
	}
	for _, tc := range cases {
		got := Parse(tc.in)
		assert.Equal(t, tc.base, got.Base, "base of %q", tc.in)
		assert.Equal(t, tc.quote, got.Quote, "quote of %q", tc.in)
	}

	assert.Equal(t, Symbol{}, Parse(""))
}

func TestFormats(t *testing.T) {
	s := Symbol{Base: "BTC", Quote: "USDT"}
	assert.Equal(t, "BTC/USDT", s.Internal())
	assert.Equal(t, "BTCUSDT", s.Binance())
	assert.Empty(t, Symbol{Base: "BTC"}.Internal())
}

func TestBaseAndPair(t *testing.T) {
	assert.Equal(t, "BTC", Base("BTC/USDT"))
	assert.Equal(t, "BTC/USDT", Pair("BTC"))
	assert.Equal(t, "BTC/USDT", Pair("BTC/USDT"))
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"btc", "BTC/USDT", "ethusdt", "", "ETH"})
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, got)
	assert.Nil(t, NormalizeList(nil))
}
