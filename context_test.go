package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextBlockValues(t *testing.T) {
	bg := context.Background()

	if _, ok := GetHeight(bg); ok {
		t.Fatal("height on an empty context")
	}
	if _, ok := BlockTime(bg); ok {
		t.Fatal("block time on an empty context")
	}

	now := time.Unix(1234567890, 0)
	ctx := WithHeight(bg, 7)
	ctx = WithChainID(ctx, "fymoney-test-1")
	ctx = WithBlockTime(ctx, now)

	height, ok := GetHeight(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), height)
	assert.Equal(t, "fymoney-test-1", GetChainID(ctx))

	got, ok := BlockTime(ctx)
	require.True(t, ok)
	assert.True(t, now.Equal(got))

	unix, err := BlockUnixTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, AsUnixTime(now), unix)
}

func TestContextChainIDGuards(t *testing.T) {
	ctx := WithChainID(context.Background(), "fymoney-test-1")

	// chain id is immutable for the lifetime of the context
	assert.Panics(t, func() { WithChainID(ctx, "other-chain-9") })
	assert.Panics(t, func() { WithChainID(context.Background(), "bad chain id!") })
	assert.Panics(t, func() { GetChainID(context.Background()) })
}

func TestIsValidChainID(t *testing.T) {
	assert.True(t, IsValidChainID("fymoney-1"))
	assert.True(t, IsValidChainID("test_chain_123"))
	assert.False(t, IsValidChainID("short"))
	assert.False(t, IsValidChainID("white space"))
	assert.False(t, IsValidChainID("this-chain-id-is-way-too-long"))
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1234567890, 0)
	ctx := WithBlockTime(context.Background(), now)

	assert.True(t, IsExpired(ctx, AsUnixTime(now.Add(-time.Second))))
	// expiration is inclusive of the block time
	assert.True(t, IsExpired(ctx, AsUnixTime(now)))
	assert.False(t, IsExpired(ctx, AsUnixTime(now.Add(time.Second))))

	assert.Panics(t, func() { IsExpired(context.Background(), AsUnixTime(now)) })
}

func TestInTheFuture(t *testing.T) {
	now := time.Unix(1234567890, 0)
	ctx := WithBlockTime(context.Background(), now)

	assert.True(t, InTheFuture(ctx, now.Add(time.Second)))
	assert.False(t, InTheFuture(ctx, now))
	assert.False(t, InTheFuture(ctx, now.Add(-time.Second)))
}
