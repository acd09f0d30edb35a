package ledgertest

import (
	"context"
	"time"

	"github.com/fymoney/ledger"
)

// Ctx returns a context populated with chain metadata the way the
// application sets it up before message processing. Handlers that
// check expiration can run against it directly.
func Ctx(height int64, blockTime time.Time) ledger.Context {
	ctx := context.Background()
	ctx = ledger.WithChainID(ctx, "testchain-1")
	ctx = ledger.WithHeight(ctx, height)
	ctx = ledger.WithBlockTime(ctx, blockTime)
	return ctx
}
