package app

import (
	"testing"
	"time"

	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/ledgertest"
	"github.com/fymoney/ledger/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()
	good := &ledgertest.Handler{}
	other := &ledgertest.Handler{}
	r.Handle("escrow/initialize", good)
	r.Handle("escrow/claim", other)

	db := store.MemStore()
	ctx := ledgertest.Ctx(1, time.Unix(1234567890, 0))

	tx := &ledgertest.Tx{Msg: &ledgertest.Msg{RoutePath: "escrow/initialize"}}
	_, err := r.Check(ctx, db, tx)
	require.NoError(t, err)
	_, err = r.Deliver(ctx, db, tx)
	require.NoError(t, err)
	assert.Equal(t, 2, good.CallCount())
	assert.Equal(t, 0, other.CallCount())
}

func TestRouterUnknownPath(t *testing.T) {
	r := NewRouter()
	db := store.MemStore()
	ctx := ledgertest.Ctx(1, time.Unix(1234567890, 0))

	tx := &ledgertest.Tx{Msg: &ledgertest.Msg{RoutePath: "escrow/initialize"}}
	_, err := r.Check(ctx, db, tx)
	assert.True(t, errors.ErrNotFound.Is(err))
	_, err = r.Deliver(ctx, db, tx)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestRouterRegistration(t *testing.T) {
	r := NewRouter()
	r.Handle("escrow/initialize", &ledgertest.Handler{})

	assert.Panics(t, func() { r.Handle("escrow/initialize", &ledgertest.Handler{}) })
	assert.Panics(t, func() { r.Handle("UPPER/case", &ledgertest.Handler{}) })
	assert.Panics(t, func() { r.Handle("nopath", &ledgertest.Handler{}) })
}
