package cash

import (
	"testing"

	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/ledgertest"
	"github.com/fymoney/ledger/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveCoins(t *testing.T) {
	alice := ledgertest.NewCondition().Address()
	bob := ledgertest.NewCondition().Address()
	carol := ledgertest.NewCondition().Address()

	cases := map[string]struct {
		amount      coin.Coin
		wantErr     *errors.Error
		wantSrc     coin.Coins
		wantDest    coin.Coins
		destMissing bool
	}{
		"partial transfer": {
			amount:   coin.NewCoin(40, "USDC"),
			wantSrc:  coin.Coins{{Amount: 60, Ticker: "USDC"}},
			wantDest: coin.Coins{{Amount: 40, Ticker: "USDC"}},
		},
		"full transfer removes the source wallet": {
			amount:   coin.NewCoin(100, "USDC"),
			wantSrc:  nil,
			wantDest: coin.Coins{{Amount: 100, Ticker: "USDC"}},
		},
		"insufficient funds": {
			amount:  coin.NewCoin(101, "USDC"),
			wantErr: errors.ErrAmount,
		},
		"wrong token kind": {
			amount:  coin.NewCoin(1, "EURC"),
			wantErr: errors.ErrAmount,
		},
		"zero amount": {
			amount:  coin.NewCoin(0, "USDC"),
			wantErr: errors.ErrAmount,
		},
		"negative amount": {
			amount:  coin.NewCoin(-5, "USDC"),
			wantErr: errors.ErrAmount,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			require.NoError(t, ctrl.IssueCoins(db, alice, coin.NewCoin(100, "USDC")))

			err := ctrl.MoveCoins(db, alice, bob, tc.amount)
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err))
				return
			}
			require.NoError(t, err)

			src, err := ctrl.Balance(db, alice)
			require.NoError(t, err)
			assert.True(t, tc.wantSrc.Equals(src))

			dest, err := ctrl.Balance(db, bob)
			require.NoError(t, err)
			assert.True(t, tc.wantDest.Equals(dest))
		})
	}

	t.Run("missing source account", func(t *testing.T) {
		db := store.MemStore()
		ctrl := NewController()
		err := ctrl.MoveCoins(db, carol, bob, coin.NewCoin(1, "USDC"))
		assert.True(t, errors.ErrEmpty.Is(err))
	})
}

func TestMoveAll(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	custody := ledgertest.NewCondition().Address()
	claimer := ledgertest.NewCondition().Address()

	require.NoError(t, ctrl.IssueCoins(db, custody, coin.NewCoin(75, "USDC")))
	require.NoError(t, ctrl.IssueCoins(db, claimer, coin.NewCoin(5, "USDC")))

	moved, err := ctrl.MoveAll(db, custody, claimer)
	require.NoError(t, err)
	assert.True(t, coin.Coins{{Amount: 75, Ticker: "USDC"}}.Equals(moved))

	// the custody wallet is gone, not just empty
	has, err := ctrl.HasWallet(db, custody)
	require.NoError(t, err)
	assert.False(t, has)

	got, err := ctrl.Balance(db, claimer)
	require.NoError(t, err)
	assert.True(t, coin.Coins{{Amount: 80, Ticker: "USDC"}}.Equals(got))
}

func TestMoveAllMissingSource(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	_, err := ctrl.MoveAll(db, ledgertest.NewCondition().Address(), ledgertest.NewCondition().Address())
	assert.True(t, errors.ErrEmpty.Is(err))
}

func TestBalanceOfUnknownAccount(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	got, err := ctrl.Balance(db, ledgertest.NewCondition().Address())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIssueNegative(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	addr := ledgertest.NewCondition().Address()

	require.NoError(t, ctrl.IssueCoins(db, addr, coin.NewCoin(10, "USDC")))
	require.NoError(t, ctrl.IssueCoins(db, addr, coin.NewCoin(-10, "USDC")))

	// drained by issuing a negative amount, wallet is removed
	has, err := ctrl.HasWallet(db, addr)
	require.NoError(t, err)
	assert.False(t, has)

	err = ctrl.IssueCoins(db, addr, coin.NewCoin(-1, "USDC"))
	assert.True(t, errors.ErrAmount.Is(err))
}
