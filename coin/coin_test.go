package coin

import (
	"math"
	"testing"

	"github.com/fymoney/ledger/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinAdd(t *testing.T) {
	cases := map[string]struct {
		a, b    Coin
		want    Coin
		wantErr *errors.Error
	}{
		"simple sum": {
			a:    NewCoin(100, "USDC"),
			b:    NewCoin(25, "USDC"),
			want: NewCoin(125, "USDC"),
		},
		"negative operand": {
			a:    NewCoin(100, "USDC"),
			b:    NewCoin(-40, "USDC"),
			want: NewCoin(60, "USDC"),
		},
		"ticker mismatch": {
			a:       NewCoin(100, "USDC"),
			b:       NewCoin(100, "EURC"),
			wantErr: errors.ErrAmount,
		},
		"positive overflow": {
			a:       NewCoin(math.MaxInt64, "USDC"),
			b:       NewCoin(1, "USDC"),
			wantErr: errors.ErrOverflow,
		},
		"negative overflow": {
			a:       NewCoin(math.MinInt64, "USDC"),
			b:       NewCoin(-1, "USDC"),
			wantErr: errors.ErrOverflow,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := tc.a.Add(tc.b)
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equals(got))
		})
	}
}

func TestCoinSubtract(t *testing.T) {
	got, err := NewCoin(100, "USDC").Subtract(NewCoin(30, "USDC"))
	require.NoError(t, err)
	assert.True(t, NewCoin(70, "USDC").Equals(got))

	// going below zero is fine at the coin level, wallets reject it
	got, err = NewCoin(10, "USDC").Subtract(NewCoin(30, "USDC"))
	require.NoError(t, err)
	assert.True(t, NewCoin(-20, "USDC").Equals(got))
}

func TestCoinValidate(t *testing.T) {
	assert.NoError(t, NewCoin(0, "USDC").Validate())
	assert.NoError(t, NewCoin(1, "IOV").Validate())

	assert.True(t, errors.ErrAmount.Is(NewCoin(-1, "USDC").Validate()))
	assert.True(t, errors.ErrAmount.Is(NewCoin(1, "usdc").Validate()))
	assert.True(t, errors.ErrAmount.Is(NewCoin(1, "AB").Validate()))
	assert.True(t, errors.ErrAmount.Is(NewCoin(1, "WAYTOOLONGTICK").Validate()))
}

func TestCoinIsGTE(t *testing.T) {
	assert.True(t, NewCoin(2, "USDC").IsGTE(NewCoin(1, "USDC")))
	assert.True(t, NewCoin(2, "USDC").IsGTE(NewCoin(2, "USDC")))
	assert.False(t, NewCoin(1, "USDC").IsGTE(NewCoin(2, "USDC")))
	assert.False(t, NewCoin(5, "USDC").IsGTE(NewCoin(1, "EURC")))
}

func TestCoinsAdd(t *testing.T) {
	var cs Coins

	cs, err := cs.Add(NewCoin(50, "USDC"))
	require.NoError(t, err)
	cs, err = cs.Add(NewCoin(7, "EURC"))
	require.NoError(t, err)

	// sorted by ticker
	require.Len(t, cs, 2)
	assert.Equal(t, "EURC", cs[0].Ticker)
	assert.Equal(t, "USDC", cs[1].Ticker)
	assert.NoError(t, cs.Validate())

	// draining a coin to zero removes it from the set
	cs, err = cs.Add(NewCoin(-7, "EURC"))
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "USDC", cs[0].Ticker)

	// cannot go below zero
	_, err = cs.Add(NewCoin(-51, "USDC"))
	assert.True(t, errors.ErrAmount.Is(err))
	_, err = cs.Add(NewCoin(-1, "EURC"))
	assert.True(t, errors.ErrAmount.Is(err))
}

func TestCoinsContains(t *testing.T) {
	cs := Coins{{Amount: 50, Ticker: "USDC"}}

	assert.True(t, cs.Contains(NewCoin(50, "USDC")))
	assert.True(t, cs.Contains(NewCoin(1, "USDC")))
	assert.False(t, cs.Contains(NewCoin(51, "USDC")))
	assert.False(t, cs.Contains(NewCoin(1, "EURC")))
}

func TestCoinsAddDoesNotMutateReceiver(t *testing.T) {
	orig := Coins{{Amount: 10, Ticker: "USDC"}}

	_, err := orig.Add(NewCoin(5, "USDC"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), orig[0].Amount)
}
