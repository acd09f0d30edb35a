package ledger_test

import (
	"testing"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/ledgertest"
	"github.com/fymoney/ledger/x/escrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMsg(t *testing.T) {
	addr := ledgertest.NewCondition().Address()
	tx := &ledgertest.Tx{Msg: &escrow.ReclaimMsg{EscrowAddress: addr}}

	var msg escrow.ReclaimMsg
	require.NoError(t, ledger.LoadMsg(tx, &msg))
	assert.Equal(t, addr, msg.EscrowAddress)
}

func TestLoadMsgWrongType(t *testing.T) {
	tx := &ledgertest.Tx{Msg: &escrow.ReclaimMsg{EscrowAddress: ledgertest.NewCondition().Address()}}

	var msg escrow.ClaimMsg
	err := ledger.LoadMsg(tx, &msg)
	assert.True(t, errors.ErrType.Is(err))
}

func TestLoadMsgInvalid(t *testing.T) {
	// an empty reclaim fails message validation before the copy
	tx := &ledgertest.Tx{Msg: &escrow.ReclaimMsg{}}

	var msg escrow.ReclaimMsg
	err := ledger.LoadMsg(tx, &msg)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestGetPath(t *testing.T) {
	tx := &ledgertest.Tx{Msg: &escrow.ReclaimMsg{}}
	assert.Equal(t, "escrow/reclaim", ledger.GetPath(tx))
	assert.Equal(t, "(missing)", ledger.GetPath(&ledgertest.Tx{}))
}
