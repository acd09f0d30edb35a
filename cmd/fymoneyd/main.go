// Command fymoneyd runs an escrow transfer node: the in-process
// ledger, the sponsor-funded transfer service, the SQLite status
// mirror and the notification dispatcher, plus a periodic
// reconciliation loop keeping the mirror honest.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fymoney/ledger"
	"github.com/fymoney/ledger/app"
	"github.com/fymoney/ledger/client"
	"github.com/fymoney/ledger/coin"
	"github.com/fymoney/ledger/crypto"
	"github.com/fymoney/ledger/mirror"
	"github.com/fymoney/ledger/notify"
	"github.com/fymoney/ledger/x/cash"
	"github.com/fymoney/ledger/x/escrow"
	"github.com/fymoney/ledger/x/sigs"
	"github.com/fymoney/ledger/x/txfee"
	"github.com/spf13/viper"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(log); err != nil {
		log.Error("daemon failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("chain_id", "fymoney-1")
	v.SetDefault("sponsor_seed", "")
	v.SetDefault("genesis.sponsor", int64(1_000_000))
	v.SetDefault("fee.amount", int64(1))
	v.SetDefault("fee.ticker", "USDC")
	v.SetDefault("mirror.dsn", "fymoneyd.db")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", notify.DefaultExchange)
	v.SetDefault("reconcile.interval", 30*time.Second)

	v.SetConfigName("fymoneyd")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/fymoneyd")
	v.SetEnvPrefix("FYMONEYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// running on defaults and environment alone is fine
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// sponsorKey loads the sponsor key from a hex encoded seed, or
// generates a throwaway one for development setups.
func sponsorKey(seed string, log *slog.Logger) (*crypto.PrivateKey, error) {
	if seed == "" {
		log.Warn("no sponsor seed configured, generating an ephemeral key")
		return crypto.GenPrivKeyEd25519(), nil
	}
	raw, err := hex.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("decode sponsor seed: %w", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("sponsor seed must be %d bytes", ed25519.SeedSize)
	}
	return crypto.PrivKeyEd25519FromSeed(raw), nil
}

// daemon is the wired node. The transfer service carries the sponsor
// key and is what an attached transport calls into.
type daemon struct {
	chain      *app.Ledger
	transfers  *client.Service
	store      *mirror.Store
	reconciler *mirror.Reconciler
	interval   time.Duration
	log        *slog.Logger
}

func run(log *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sponsor, err := sponsorKey(cfg.GetString("sponsor_seed"), log)
	if err != nil {
		return err
	}

	chainID := cfg.GetString("chain_id")
	fee := coin.NewCoin(cfg.GetInt64("fee.amount"), cfg.GetString("fee.ticker"))
	collector := ledger.NewCondition("txfee", "collector", []byte(chainID)).Address()

	escrow.RegisterMessages(app.RegisterMsg)
	auth := sigs.Authenticate{}
	bank := cash.NewController()
	router := app.NewRouter()
	escrow.RegisterRoutes(router, auth, bank)
	stack := app.ChainDecorators(
		sigs.NewDecorator(),
		txfee.NewDecorator(auth, bank, collector, fee),
	).WithHandler(router)

	chain := app.NewLedger(stack, chainID, nil)
	if amount := cfg.GetInt64("genesis.sponsor"); amount > 0 {
		if err := chain.IssueCoins(sponsor.PublicKey().Address(), coin.NewCoin(amount, fee.Ticker)); err != nil {
			return fmt.Errorf("fund sponsor: %w", err)
		}
	}

	store, err := mirror.Open(cfg.GetString("mirror.dsn"))
	if err != nil {
		return fmt.Errorf("open mirror: %w", err)
	}
	defer store.Close()

	var notifier client.Observer = notify.Nop{}
	if url := cfg.GetString("amqp.url"); url != "" {
		amqp, err := notify.DialAMQP(url, cfg.GetString("amqp.exchange"))
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer amqp.Close()
		notifier = amqp
	}

	cosigner := client.NewCoSigner(sponsor, fee, chain)
	d := &daemon{
		chain:      chain,
		transfers:  client.NewService(chain, cosigner, []client.Observer{store, notifier}, log),
		store:      store,
		reconciler: mirror.NewReconciler(store, chain, notifier, log),
		interval:   cfg.GetDuration("reconcile.interval"),
		log:        log,
	}

	log.Info("fymoneyd up",
		"chain_id", chainID,
		"sponsor", sponsor.PublicKey().Address(),
		"collector", collector,
		"fee", fee.String(),
		"mirror", cfg.GetString("mirror.dsn"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.loop(ctx)
}

// loop runs the reconciler until the context is cancelled.
func (d *daemon) loop(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("shutting down")
			return nil
		case <-ticker.C:
			repaired, err := d.reconciler.Reconcile(ctx)
			if err != nil {
				d.log.Error("reconciliation failed", "err", err)
				continue
			}
			if repaired > 0 {
				d.log.Info("mirror repaired", "rows", repaired)
			}
		}
	}
}
