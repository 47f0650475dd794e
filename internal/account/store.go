package account

import (
	"fmt"
	"slices"

	"github.com/fystack/solana-studio/pkg/common/constant"
	"github.com/fystack/solana-studio/pkg/common/logger"
	"github.com/fystack/solana-studio/pkg/kvstore"
)

// Record is the persisted form of a registry entry. Secret is empty for
// watch-only accounts.
type Record struct {
	Account
	Secret string `json:"secret,omitempty"`
}

// Store snapshots the registry to a key-value store and restores it on
// startup. The service itself never touches the store.
type Store struct {
	kv kvstore.KVStore
}

func NewStore(kv kvstore.KVStore) *Store {
	return &Store{kv: kv}
}

func recordKey(address string) string {
	return constant.AccountKeyPrefix + address
}

// Save replaces the stored snapshot with the registry's current contents.
func (st *Store) Save(s *Service) error {
	records := s.registry.records()

	existing, err := st.kv.List(constant.AccountKeyPrefix)
	if err != nil {
		return fmt.Errorf("list snapshot: %w", err)
	}
	keep := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := recordKey(rec.Address)
		keep[key] = struct{}{}
		if err := st.kv.SetAny(key, rec); err != nil {
			return fmt.Errorf("save %s: %w", rec.Address, err)
		}
	}
	for _, pair := range existing {
		if _, ok := keep[pair.Key]; ok {
			continue
		}
		if err := st.kv.Delete(pair.Key); err != nil {
			return fmt.Errorf("delete %s: %w", pair.Key, err)
		}
	}
	logger.Debug("Saved account snapshot", "accounts", len(records))
	return nil
}

// Load registers every stored record with s, ordered by creation time.
// Records that fail to decode are skipped with a warning.
func (st *Store) Load(s *Service) (int, error) {
	pairs, err := st.kv.List(constant.AccountKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list snapshot: %w", err)
	}

	records := make([]Record, 0, len(pairs))
	for _, pair := range pairs {
		var rec Record
		if _, err := st.kv.GetAny(pair.Key, &rec); err != nil {
			logger.Warn("Skipping unreadable account record", "key", pair.Key, "err", err)
			continue
		}
		records = append(records, rec)
	}
	sortByCreation(records)

	loaded := 0
	for _, rec := range records {
		if err := s.restore(rec); err != nil {
			logger.Warn("Skipping account record", "address", rec.Address, "err", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

func sortByCreation(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
