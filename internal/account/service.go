package account

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fystack/solana-studio/internal/keys"
	"github.com/fystack/solana-studio/internal/rpc/solana"
	"github.com/fystack/solana-studio/internal/txbuilder"
	"github.com/fystack/solana-studio/pkg/common/logger"
	"github.com/fystack/solana-studio/pkg/events"
)

// ClientFactory builds the RPC facade for a network.
type ClientFactory func(solana.Network) solana.API

type Option func(*Service)

func WithEmitter(e events.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithEncoder sets the transaction encoder used by Transfer.
func WithEncoder(e txbuilder.Encoder) Option {
	return func(s *Service) { s.encoder = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	keys      keys.Provider
	newClient ClientFactory
	registry  *Registry
	emitter   events.Emitter
	encoder   txbuilder.Encoder
	now       func() time.Time

	mu         sync.RWMutex
	client     solana.API
	generation uint64
}

func NewService(provider keys.Provider, factory ClientFactory, network solana.Network, opts ...Option) *Service {
	s := &Service{
		keys:      provider,
		newClient: factory,
		registry:  NewRegistry(),
		emitter:   events.Noop(),
		encoder:   txbuilder.PlaceholderEncoder{},
		now:       time.Now,
		client:    factory(network),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// current returns the active facade together with its generation.
func (s *Service) current() (solana.API, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client, s.generation
}

func (s *Service) generationIs(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == gen
}

func (s *Service) Network() solana.Network {
	client, _ := s.current()
	return client.Network()
}

// SwitchNetwork replaces the RPC facade. Requests already in flight against
// the previous facade are left to finish; their results are not applied.
func (s *Service) SwitchNetwork(network solana.Network) {
	client := s.newClient(network)

	s.mu.Lock()
	prev := s.client.Network()
	s.client = client
	s.generation++
	s.mu.Unlock()

	logger.Info("Switched network", "from", prev.String(), "to", network.String())
}

func (s *Service) CreateAccount(label string) (Account, keys.Keypair, error) {
	kp, err := s.keys.Generate()
	if err != nil {
		return Account{}, keys.Keypair{}, err
	}
	acct := Account{
		Address:   kp.Address(),
		Label:     label,
		CreatedAt: s.now().UTC(),
	}
	if err := s.registry.Add(acct, &kp); err != nil {
		return Account{}, keys.Keypair{}, err
	}
	s.emitAccount("created", acct)
	return acct, kp, nil
}

func (s *Service) ImportAccount(secret, label string) (Account, error) {
	kp, err := s.keys.DecodeSecret(secret)
	if err != nil {
		return Account{}, err
	}
	acct := Account{
		Address:   kp.Address(),
		Label:     label,
		CreatedAt: s.now().UTC(),
	}
	if err := s.registry.Add(acct, &kp); err != nil {
		return Account{}, err
	}
	s.emitAccount("imported", acct)
	return acct, nil
}

// WatchAccount registers an address without a signing key.
func (s *Service) WatchAccount(address, label string) (Account, error) {
	address, err := s.normalizeAddress(address)
	if err != nil {
		return Account{}, err
	}
	acct := Account{
		Address:   address,
		Label:     label,
		CreatedAt: s.now().UTC(),
	}
	if err := s.registry.Add(acct, nil); err != nil {
		return Account{}, err
	}
	s.emitAccount("imported", acct)
	return acct, nil
}

func (s *Service) RemoveAccount(address string) bool {
	address = strings.TrimSpace(address)
	acct, _ := s.registry.Get(address)
	if !s.registry.Remove(address) {
		return false
	}
	s.emitAccount("removed", acct)
	return true
}

func (s *Service) RenameAccount(address, label string) error {
	address = strings.TrimSpace(address)
	if !s.registry.Rename(address, label) {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	acct, _ := s.registry.Get(address)
	s.emitAccount("renamed", acct)
	return nil
}

// ListAccounts returns registered accounts with their last known balances.
func (s *Service) ListAccounts() []Account {
	return s.registry.List()
}

// GetAccountsWithBalances fetches every registered balance in one batched
// call. Accounts missing on-chain, or the whole batch on a network failure,
// report a zero balance.
func (s *Service) GetAccountsWithBalances(ctx context.Context) []AccountWithBalance {
	views, err := s.fetchBalances(ctx)
	if err != nil {
		logger.Warn("Fetch balances failed, reporting zero", "err", err)
	}
	return views
}

// RefreshBalances updates cached balances and surfaces network failures.
func (s *Service) RefreshBalances(ctx context.Context) ([]AccountWithBalance, error) {
	return s.fetchBalances(ctx)
}

func (s *Service) fetchBalances(ctx context.Context) ([]AccountWithBalance, error) {
	accounts := s.registry.List()
	views := make([]AccountWithBalance, len(accounts))
	if len(accounts) == 0 {
		return views, nil
	}

	addresses := make([]string, len(accounts))
	for i, a := range accounts {
		addresses[i] = a.Address
	}

	client, gen := s.current()
	infos, err := client.GetMultipleAccounts(ctx, addresses)
	if err != nil {
		for i, a := range accounts {
			views[i] = withBalance(a, 0)
		}
		return views, err
	}

	for i, a := range accounts {
		var lamports uint64
		if i < len(infos) && infos[i] != nil {
			lamports = infos[i].Lamports
		}
		views[i] = withBalance(a, lamports)
	}

	if !s.generationIs(gen) {
		logger.Debug("Network switched during balance fetch, not caching", "accounts", len(accounts))
		return views, nil
	}
	for _, v := range views {
		s.registry.SetBalance(v.Account.Address, v.Balance)
	}
	return views, nil
}

func (s *Service) GetBalance(ctx context.Context, address string) (uint64, error) {
	address, err := s.normalizeAddress(address)
	if err != nil {
		return 0, err
	}
	client, gen := s.current()
	lamports, err := client.GetBalance(ctx, address)
	if err != nil {
		return 0, err
	}
	if s.generationIs(gen) {
		s.registry.SetBalance(address, lamports)
	}
	return lamports, nil
}

// RequestAirdrop asks the active network for lamports. Mainnet is refused
// up front since no public mainnet endpoint honours the call.
func (s *Service) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	address, err := s.normalizeAddress(address)
	if err != nil {
		return "", err
	}
	client, _ := s.current()
	network := client.Network()
	if !network.AllowsAirdrop() {
		return "", fmt.Errorf("%w: %s", ErrAirdropDisabled, network)
	}

	sig, err := client.RequestAirdrop(ctx, address, lamports)
	if err != nil {
		return "", err
	}
	s.emit(func(e events.Emitter) error {
		return e.EmitAirdrop(network.String(), events.TransactionEvent{Signature: sig, To: address, Lamports: lamports})
	})
	return sig, nil
}

// Transfer sends lamports from a registered account holding a signing key.
func (s *Service) Transfer(ctx context.Context, from, to string, lamports uint64) (string, error) {
	from = strings.TrimSpace(from)
	kp, ok := s.registry.Keypair(from)
	if !ok {
		if _, registered := s.registry.Get(from); !registered {
			return "", fmt.Errorf("%w: %s", ErrNotFound, from)
		}
		return "", fmt.Errorf("%w: %s", ErrNoSigningKey, from)
	}
	to, err := s.normalizeAddress(to)
	if err != nil {
		return "", err
	}
	recipient, err := keys.ParseAddress(to)
	if err != nil {
		return "", err
	}

	client, _ := s.current()
	sig, err := txbuilder.New(kp.PublicKey(), txbuilder.WithEncoder(s.encoder)).
		AddInstruction(txbuilder.Transfer(kp.PublicKey(), recipient, lamports)).
		AddSigner(kp).
		BuildAndSend(ctx, client)
	if err != nil {
		return "", err
	}

	logger.Info("Transfer submitted", "from", from, "to", to, "lamports", lamports, "signature", sig)
	s.emit(func(e events.Emitter) error {
		return e.EmitTransaction(client.Network().String(), events.TransactionEvent{
			Signature: sig,
			From:      from,
			To:        to,
			Lamports:  lamports,
		})
	})
	return sig, nil
}

// ConfirmTransaction waits on the active network for sig to land.
func (s *Service) ConfirmTransaction(ctx context.Context, sig string) (bool, error) {
	client, _ := s.current()
	return client.ConfirmTransaction(ctx, sig)
}

func (s *Service) emitAccount(action string, a Account) {
	s.emit(func(e events.Emitter) error {
		return e.EmitAccount(events.AccountEvent{Action: action, Address: a.Address, Label: a.Label})
	})
}

// emit publishes best effort; event delivery never fails an account operation.
func (s *Service) emit(fn func(events.Emitter) error) {
	if err := fn(s.emitter); err != nil {
		logger.Warn("Emit event failed", "err", err)
	}
}

// normalizeAddress returns the canonical base58 form of address, so that
// padded or otherwise equivalent spellings key the same registry entry.
func (s *Service) normalizeAddress(address string) (string, error) {
	if !s.keys.ValidateAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	pk, err := keys.ParseAddress(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return pk.String(), nil
}

func (s *Service) restore(rec Record) error {
	address, err := s.normalizeAddress(rec.Address)
	if err != nil {
		return err
	}
	rec.Address = address

	var kp *keys.Keypair
	if rec.Secret != "" {
		decoded, err := s.keys.DecodeSecret(rec.Secret)
		if err != nil {
			return err
		}
		if decoded.Address() != rec.Address {
			return fmt.Errorf("secret does not match address %s", rec.Address)
		}
		kp = &decoded
	}
	return s.registry.Add(rec.Account, kp)
}
