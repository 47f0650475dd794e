package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/solana-studio/internal/keys"
	"github.com/fystack/solana-studio/internal/rpc/solana"
	"github.com/fystack/solana-studio/pkg/kvstore"
)

func newMemKV(t *testing.T) kvstore.KVStore {
	t.Helper()
	kv, err := kvstore.NewBadgerStore(kvstore.BadgerOptions{InMemory: true, Prefix: "studio"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestStore_SaveAndLoad(t *testing.T) {
	kv := newMemKV(t)
	store := NewStore(kv)

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	nets := newFakeNetworks()
	src := NewService(keys.Ed25519{}, nets.factory, solana.DevnetNetwork, WithClock(clock))
	alice, aliceKey, err := src.CreateAccount("Alice")
	require.NoError(t, err)
	bob, _, err := src.CreateAccount("Bob")
	require.NoError(t, err)
	watched, err := src.WatchAccount("11111111111111111111111111111111", "system")
	require.NoError(t, err)

	require.NoError(t, store.Save(src))

	dst := NewService(keys.Ed25519{}, nets.factory, solana.DevnetNetwork)
	n, err := store.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list := dst.ListAccounts()
	require.Len(t, list, 3)
	assert.Equal(t, []string{alice.Address, bob.Address, watched.Address},
		[]string{list[0].Address, list[1].Address, list[2].Address})

	kp, ok := dst.registry.Keypair(alice.Address)
	require.True(t, ok)
	assert.Equal(t, aliceKey.Secret(), kp.Secret())

	_, ok = dst.registry.Keypair(watched.Address)
	assert.False(t, ok)
}

func TestStore_SaveDropsRemovedAccounts(t *testing.T) {
	kv := newMemKV(t)
	store := NewStore(kv)
	svc, _ := newTestService(t, solana.DevnetNetwork)

	a, _, _ := svc.CreateAccount("a")
	_, _, _ = svc.CreateAccount("b")
	require.NoError(t, store.Save(svc))

	svc.RemoveAccount(a.Address)
	require.NoError(t, store.Save(svc))

	pairs, err := kv.List("account_")
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestStore_LoadSkipsMismatchedSecret(t *testing.T) {
	kv := newMemKV(t)
	other, err := keys.Ed25519{}.Generate()
	require.NoError(t, err)

	require.NoError(t, kv.SetAny("account_x", Record{
		Account: Account{Address: "11111111111111111111111111111111", Label: "x"},
		Secret:  other.Secret(),
	}))

	svc, _ := newTestService(t, solana.DevnetNetwork)
	n, err := NewStore(kv).Load(svc)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, svc.ListAccounts())
}
