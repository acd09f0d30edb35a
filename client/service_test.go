package client

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/app"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/errors"
	"github.com/fymoney/ledger/x/cash"
	"github.com/fymoney/ledger/x/escrow"
	"github.com/fymoney/ledger/x/sigs"
	"github.com/fymoney/ledger/x/txfee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = "fymoney-test-1"

var networkFee = coin.NewCoin(2, "USDC")

type env struct {
	chain   *app.Ledger
	now     time.Time
	sponsor *crypto.PrivateKey
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		now:     time.Unix(1234567890, 0),
		sponsor: crypto.GenPrivKeyEd25519(),
	}

	auth := sigs.Authenticate{}
	bank := cash.NewController()
	router := app.NewRouter()
	escrow.RegisterRoutes(router, auth, bank)

	stack := app.ChainDecorators(
		sigs.NewDecorator(),
		txfee.NewDecorator(auth, bank, crypto.GenPrivKeyEd25519().PublicKey().Address(), networkFee),
	).WithHandler(router)

	e.chain = app.NewLedger(stack, testChainID, func() time.Time { return e.now })
	require.NoError(t, e.chain.IssueCoins(e.sponsor.PublicKey().Address(), coin.NewCoin(1_000, "USDC")))
	return e
}

func (e *env) service(t *testing.T, observers ...Observer) *Service {
	t.Helper()
	cs := NewCoSigner(e.sponsor, networkFee, e.chain)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(e.chain, cs, observers, log)
}

// recObserver records every event it sees and can be made to fail.
type recObserver struct {
	created   []Event
	claimed   []Event
	reclaimed []Event
	err       error
}

func (o *recObserver) EscrowCreated(ctx context.Context, ev Event) error {
	o.created = append(o.created, ev)
	return o.err
}

func (o *recObserver) EscrowClaimed(ctx context.Context, ev Event) error {
	o.claimed = append(o.claimed, ev)
	return o.err
}

func (o *recObserver) EscrowReclaimed(ctx context.Context, ev Event) error {
	o.reclaimed = append(o.reclaimed, ev)
	return o.err
}

func TestServiceInitializeAndClaim(t *testing.T) {
	e := newEnv(t)
	obs := &recObserver{}
	svc := e.service(t, obs)
	ctx := context.Background()

	sender := crypto.GenPrivKeyEd25519()
	recipient := crypto.GenPrivKeyEd25519()
	require.NoError(t, e.chain.IssueCoins(sender.PublicKey().Address(), coin.NewCoin(500, "USDC")))

	amount := coin.NewCoin(300, "USDC")
	expiresAt := ledger.AsUnixTime(e.now.Add(24 * time.Hour))
	addr, err := svc.Initialize(ctx, sender, "alice@example.com", amount, expiresAt)
	require.NoError(t, err)
	require.NoError(t, addr.Validate())

	require.Len(t, obs.created, 1)
	ev := obs.created[0]
	assert.Equal(t, addr, ev.EscrowAddress)
	assert.Equal(t, "alice@example.com", ev.RecipientID)
	assert.True(t, amount.Equals(ev.Amount))
	assert.Equal(t, uint64(0), ev.Nonce)
	assert.Nil(t, ev.Recipient)

	e.now = e.now.Add(time.Hour)
	require.NoError(t, svc.Claim(ctx, recipient, addr))

	require.Len(t, obs.claimed, 1)
	ev = obs.claimed[0]
	assert.Equal(t, recipient.PublicKey().Address(), ev.Recipient)
	assert.Equal(t, sender.PublicKey().Address(), ev.Sender)

	balance, err := e.chain.Balance(recipient.PublicKey().Address())
	require.NoError(t, err)
	assert.True(t, coin.Coins{{Amount: 300, Ticker: "USDC"}}.Equals(balance))
}

func TestServiceReclaim(t *testing.T) {
	e := newEnv(t)
	obs := &recObserver{}
	svc := e.service(t, obs)
	ctx := context.Background()

	sender := crypto.GenPrivKeyEd25519()
	require.NoError(t, e.chain.IssueCoins(sender.PublicKey().Address(), coin.NewCoin(500, "USDC")))

	amount := coin.NewCoin(500, "USDC")
	addr, err := svc.Initialize(ctx, sender, "bob@example.com", amount, ledger.AsUnixTime(e.now.Add(24*time.Hour)))
	require.NoError(t, err)

	// too early, the rejection is not retried
	err = svc.Reclaim(ctx, sender, addr)
	assert.True(t, escrow.ErrEscrowNotExpired.Is(err))
	assert.Empty(t, obs.reclaimed)

	e.now = e.now.Add(25 * time.Hour)
	require.NoError(t, svc.Reclaim(ctx, sender, addr))

	require.Len(t, obs.reclaimed, 1)
	assert.Equal(t, addr, obs.reclaimed[0].EscrowAddress)
	assert.True(t, amount.Equals(obs.reclaimed[0].Amount))

	balance, err := e.chain.Balance(sender.PublicKey().Address())
	require.NoError(t, err)
	assert.True(t, coin.Coins{{Amount: 500, Ticker: "USDC"}}.Equals(balance))
}

func TestServiceSequentialNonces(t *testing.T) {
	e := newEnv(t)
	svc := e.service(t)
	ctx := context.Background()

	sender := crypto.GenPrivKeyEd25519()
	require.NoError(t, e.chain.IssueCoins(sender.PublicKey().Address(), coin.NewCoin(1_000, "USDC")))

	expiresAt := ledger.AsUnixTime(e.now.Add(24 * time.Hour))
	var addrs []ledger.Address
	for i := 0; i < 3; i++ {
		addr, err := svc.Initialize(ctx, sender, "carol@example.com", coin.NewCoin(100, "USDC"), expiresAt)
		require.NoError(t, err)
		addrs = append(addrs, addr)
	}

	assert.False(t, addrs[0].Equals(addrs[1]))
	assert.False(t, addrs[1].Equals(addrs[2]))

	hash, err := escrow.RecipientHash("carol@example.com")
	require.NoError(t, err)
	for i, addr := range addrs {
		assert.Equal(t, escrow.Addr(sender.PublicKey().Address(), hash, uint64(i)), addr)
	}
}

// racedChain simulates losing the address race: the probe always
// reports free, so the ledger itself rejects the collision.
type racedChain struct {
	*app.Ledger
}

func (racedChain) HasEscrow(ledger.Address) (bool, error) {
	return false, nil
}

func TestServiceRetriesOnAddressCollision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sender := crypto.GenPrivKeyEd25519()
	require.NoError(t, e.chain.IssueCoins(sender.PublicKey().Address(), coin.NewCoin(1_000, "USDC")))

	expiresAt := ledger.AsUnixTime(e.now.Add(24 * time.Hour))
	first := e.service(t)
	_, err := first.Initialize(ctx, sender, "dave@example.com", coin.NewCoin(100, "USDC"), expiresAt)
	require.NoError(t, err)

	obs := &recObserver{}
	cs := NewCoSigner(e.sponsor, networkFee, e.chain)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	raced := NewService(racedChain{e.chain}, cs, []Observer{obs}, log)

	// nonce 0 is taken but the probe lies, the duplicate rejection
	// moves the service to nonce 1
	addr, err := raced.Initialize(ctx, sender, "dave@example.com", coin.NewCoin(100, "USDC"), expiresAt)
	require.NoError(t, err)

	require.Len(t, obs.created, 1)
	assert.Equal(t, uint64(1), obs.created[0].Nonce)

	hash, err := escrow.RecipientHash("dave@example.com")
	require.NoError(t, err)
	assert.Equal(t, escrow.Addr(sender.PublicKey().Address(), hash, 1), addr)
}

func TestServiceObserverFailureIsSwallowed(t *testing.T) {
	e := newEnv(t)
	obs := &recObserver{err: errors.Wrap(errors.ErrState, "observer down")}
	svc := e.service(t, obs)

	sender := crypto.GenPrivKeyEd25519()
	require.NoError(t, e.chain.IssueCoins(sender.PublicKey().Address(), coin.NewCoin(500, "USDC")))

	addr, err := svc.Initialize(context.Background(), sender, "erin@example.com",
		coin.NewCoin(100, "USDC"), ledger.AsUnixTime(e.now.Add(time.Hour)))
	require.NoError(t, err)

	// the escrow exists even though the observer failed
	has, err := e.chain.HasEscrow(addr)
	require.NoError(t, err)
	assert.True(t, has)
}
