package escrow

import (
	"testing"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/ledgertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeMsgValidate(t *testing.T) {
	sender := ledgertest.NewCondition().Address()
	hash, err := RecipientHash("alice@example.com")
	require.NoError(t, err)
	amount := coin.NewCoin(100, "USDC")

	valid := func() *InitializeMsg {
		return &InitializeMsg{
			Sender:        sender,
			RecipientHash: hash,
			Amount:        &amount,
			ExpiresAt:     12345,
		}
	}

	cases := map[string]struct {
		mutate  func(*InitializeMsg)
		wantErr *errors.Error
	}{
		"valid": {mutate: func(*InitializeMsg) {}},
		"bad sender": {
			mutate:  func(m *InitializeMsg) { m.Sender = []byte("too short") },
			wantErr: errors.ErrInput,
		},
		"bad hash": {
			mutate:  func(m *InitializeMsg) { m.RecipientHash = nil },
			wantErr: errors.ErrInput,
		},
		"missing amount": {
			mutate:  func(m *InitializeMsg) { m.Amount = nil },
			wantErr: ErrInvalidAmount,
		},
		"zero amount": {
			mutate:  func(m *InitializeMsg) { z := coin.NewCoin(0, "USDC"); m.Amount = &z },
			wantErr: ErrInvalidAmount,
		},
		"negative amount": {
			mutate:  func(m *InitializeMsg) { z := coin.NewCoin(-4, "USDC"); m.Amount = &z },
			wantErr: errors.ErrAmount,
		},
		"missing expiration": {
			mutate:  func(m *InitializeMsg) { m.ExpiresAt = 0 },
			wantErr: ErrInvalidExpiration,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			msg := valid()
			tc.mutate(msg)
			err := msg.Validate()
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClaimMsgValidate(t *testing.T) {
	addr := ledgertest.NewCondition().Address()

	assert.NoError(t, (&ClaimMsg{EscrowAddress: addr, Recipient: addr}).Validate())
	assert.Error(t, (&ClaimMsg{Recipient: addr}).Validate())
	assert.Error(t, (&ClaimMsg{EscrowAddress: addr}).Validate())
}

func TestReclaimMsgValidate(t *testing.T) {
	addr := ledgertest.NewCondition().Address()

	assert.NoError(t, (&ReclaimMsg{EscrowAddress: addr}).Validate())
	assert.Error(t, (&ReclaimMsg{}).Validate())
}

func TestMsgPaths(t *testing.T) {
	assert.Equal(t, "escrow/initialize", (&InitializeMsg{}).Path())
	assert.Equal(t, "escrow/claim", (&ClaimMsg{}).Path())
	assert.Equal(t, "escrow/reclaim", (&ReclaimMsg{}).Path())
}

func TestRegisterMessages(t *testing.T) {
	registered := make(map[string]ledger.Msg)
	RegisterMessages(func(path string, fn func() ledger.Msg) {
		registered[path] = fn()
	})

	require.Len(t, registered, 3)
	// every decoder is registered under the path its message routes to
	for path, msg := range registered {
		assert.Equal(t, path, msg.Path())
	}
}
