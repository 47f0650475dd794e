package main

import (
	"fmt"
	"log/slog"
	"time"

	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/fystack/solana-studio/internal/account"
	"github.com/fystack/solana-studio/internal/keys"
	"github.com/fystack/solana-studio/internal/rpc"
	"github.com/fystack/solana-studio/internal/rpc/solana"
	"github.com/fystack/solana-studio/pkg/common/config"
	"github.com/fystack/solana-studio/pkg/common/logger"
	"github.com/fystack/solana-studio/pkg/events"
	"github.com/fystack/solana-studio/pkg/kvstore"
	"github.com/fystack/solana-studio/pkg/ratelimiter"
)

// app carries the wired dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	network  solana.Network
	clients  account.ClientFactory
	emitter  events.Emitter
	kv       kvstore.KVStore
	store    *account.Store
	accounts *account.Service
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if network != "" {
		cfg.Network.Name = network
	}
	if rpcURL != "" {
		cfg.Network.URL = rpcURL
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})

	net, err := solana.ParseNetwork(cfg.Network.Name, cfg.Network.URL)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		network: net,
		clients: newClientFactory(cfg),
		emitter: events.Noop(),
	}

	if cfg.NATS.URL != "" {
		emitter, err := events.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", "url", cfg.NATS.URL, "err", err)
		} else {
			a.emitter = emitter
		}
	}

	a.accounts = account.NewService(keys.Ed25519{}, a.clients, net, account.WithEmitter(a.emitter))

	if cfg.Store.Directory != "" {
		kv, err := kvstore.NewBadgerStore(kvstore.BadgerOptions{
			Directory: cfg.Store.Directory,
			Prefix:    cfg.Store.Prefix,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open account store: %w", err)
		}
		a.kv = kv
		a.store = account.NewStore(kv)
		n, err := a.store.Load(a.accounts)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("restore accounts: %w", err)
		}
		logger.Debug("Restored accounts", "count", n, "dir", cfg.Store.Directory)
	}

	logger.Debug("Config loaded", "network", net.String(), "endpoint", net.Endpoint())
	return a, nil
}

func newClientFactory(cfg *config.Config) account.ClientFactory {
	pool := ratelimiter.NewPool(cfg.RPC.Throttle.RPS, cfg.RPC.Throttle.Burst)
	var auth *rpc.AuthConfig
	if a := cfg.Network.Auth; a != nil {
		auth = &rpc.AuthConfig{Type: rpc.AuthType(a.Type), Key: a.Key, Value: a.Value}
	}
	return func(n solana.Network) solana.API {
		return solana.NewClient(solana.Config{
			Network:         n,
			Commitment:      solrpc.CommitmentType(cfg.Network.Commitment),
			ConfirmTimeout:  cfg.RPC.ConfirmTimeout,
			ConfirmInterval: cfg.RPC.ConfirmInterval,
			RPC: rpc.ClientConfig{
				Timeout:    cfg.RPC.Timeout,
				MaxRetries: cfg.RPC.MaxRetries,
				RetryDelay: cfg.RPC.RetryDelay,
				Limiter:    pool,
				Auth:       auth,
			},
		})
	}
}

// save persists the registry when a store is configured.
func (a *app) save() error {
	if a.store == nil {
		return nil
	}
	return a.store.Save(a.accounts)
}

func (a *app) close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			logger.Warn("Close account store", "err", err)
		}
	}
	a.emitter.Close()
}
