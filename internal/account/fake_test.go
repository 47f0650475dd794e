package account

import (
	"context"
	"errors"
	"sync"

	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/fystack/solana-studio/internal/rpc/solana"
)

// fakeAPI is a call-counting stand-in for the RPC facade.
type fakeAPI struct {
	network solana.Network

	mu         sync.Mutex
	balances   map[string]uint64
	batchCalls int
	lastBatch  []string
	batchErr   error
	sent       []string
	airdrops   int
	airdropTo  []string
	queried    []string
	// block, when set, holds GetMultipleAccounts until closed after
	// signalling entered.
	block   chan struct{}
	entered chan struct{}
}

func newFakeAPI(network solana.Network) *fakeAPI {
	return &fakeAPI{network: network, balances: map[string]uint64{}}
}

func (f *fakeAPI) Network() solana.Network           { return f.network }
func (f *fakeAPI) Commitment() solrpc.CommitmentType { return f.network.DefaultCommitment() }

func (f *fakeAPI) GetBalance(_ context.Context, address string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried = append(f.queried, address)
	return f.balances[address], nil
}

func (f *fakeAPI) GetAccountInfo(_ context.Context, address string) (*solana.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.balances[address]
	if !ok {
		return nil, nil
	}
	return &solana.AccountInfo{Lamports: l}, nil
}

func (f *fakeAPI) GetMultipleAccounts(_ context.Context, addresses []string) ([]*solana.AccountInfo, error) {
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	f.lastBatch = append([]string(nil), addresses...)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([]*solana.AccountInfo, len(addresses))
	for i, addr := range addresses {
		if l, ok := f.balances[addr]; ok {
			out[i] = &solana.AccountInfo{Lamports: l}
		}
	}
	return out, nil
}

func (f *fakeAPI) RequestAirdrop(_ context.Context, address string, lamports uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.airdrops++
	f.airdropTo = append(f.airdropTo, address)
	f.balances[address] += lamports
	return "airdrop-sig", nil
}

func (f *fakeAPI) SendTransaction(_ context.Context, payload string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	return "tx-sig", nil
}

func (f *fakeAPI) ConfirmTransaction(context.Context, string) (bool, error) { return true, nil }
func (f *fakeAPI) TestConnection(context.Context) bool                      { return true }

func (f *fakeAPI) setBalance(address string, lamports uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[address] = lamports
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls
}

// fakeNetworks hands out one fakeAPI per network and records the order built.
type fakeNetworks struct {
	mu      sync.Mutex
	clients map[solana.Network]*fakeAPI
	built   []solana.Network
}

func newFakeNetworks() *fakeNetworks {
	return &fakeNetworks{clients: map[solana.Network]*fakeAPI{}}
}

func (n *fakeNetworks) factory(network solana.Network) solana.API {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.built = append(n.built, network)
	c, ok := n.clients[network]
	if !ok {
		c = newFakeAPI(network)
		n.clients[network] = c
	}
	return c
}

func (n *fakeNetworks) client(network solana.Network) *fakeAPI {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.clients[network]
	if !ok {
		c = newFakeAPI(network)
		n.clients[network] = c
	}
	return c
}

var errBoom = errors.New("connection refused")
