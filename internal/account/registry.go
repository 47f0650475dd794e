package account

import (
	"sync"

	"github.com/fystack/solana-studio/internal/keys"
)

type entry struct {
	account Account
	keypair *keys.Keypair
}

// Registry holds accounts in registration order, keyed by address.
// Readers always receive copies, never a partially written record.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Add registers a. kp may be nil for watch-only accounts.
func (r *Registry) Add(a Account, kp *keys.Keypair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[a.Address]; ok {
		return &RegistrationError{Address: a.Address}
	}
	r.entries[a.Address] = &entry{account: a, keypair: kp}
	r.order = append(r.order, a.Address)
	return nil
}

func (r *Registry) Remove(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[address]; !ok {
		return false
	}
	delete(r.entries, address)
	for i, addr := range r.order {
		if addr == address {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(address string) (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[address]
	if !ok {
		return Account{}, false
	}
	return e.account, true
}

func (r *Registry) Keypair(address string) (keys.Keypair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[address]
	if !ok || e.keypair == nil {
		return keys.Keypair{}, false
	}
	return *e.keypair, true
}

// List returns accounts in registration order.
func (r *Registry) List() []Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Account, 0, len(r.order))
	for _, addr := range r.order {
		out = append(out, r.entries[addr].account)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) SetBalance(address string, lamports uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[address]
	if !ok {
		return false
	}
	e.account.Balance = lamports
	return true
}

func (r *Registry) Rename(address, label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[address]
	if !ok {
		return false
	}
	e.account.Label = label
	return true
}

func (r *Registry) records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.order))
	for _, addr := range r.order {
		e := r.entries[addr]
		rec := Record{Account: e.account}
		if e.keypair != nil {
			rec.Secret = e.keypair.Secret()
		}
		out = append(out, rec)
	}
	return out
}
