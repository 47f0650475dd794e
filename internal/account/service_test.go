package account

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/solana-studio/internal/keys"
	"github.com/fystack/solana-studio/internal/rpc/solana"
)

func newTestService(t *testing.T, network solana.Network) (*Service, *fakeNetworks) {
	t.Helper()
	nets := newFakeNetworks()
	return NewService(keys.Ed25519{}, nets.factory, network), nets
}

func TestCreateAccount_RegistersWithZeroBalance(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)

	acct, kp, err := svc.CreateAccount("Alice")
	require.NoError(t, err)

	list := svc.ListAccounts()
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Label)
	assert.Equal(t, uint64(0), list[0].Balance)
	assert.Equal(t, kp.Address(), acct.Address)
	assert.Zero(t, nets.client(solana.DevnetNetwork).calls())
}

func TestImportAccount_MalformedLeavesRegistryUnchanged(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	_, _, err := svc.CreateAccount("Alice")
	require.NoError(t, err)
	before := len(svc.ListAccounts())

	for _, secret := range []string{"", "not-base58-0OIl", "[1,2,3]", "abc"} {
		_, err := svc.ImportAccount(secret, "Mallory")
		assert.ErrorIs(t, err, ErrDecode, "secret %q", secret)
	}
	assert.Equal(t, before, len(svc.ListAccounts()))
}

func TestImportAccount_DuplicateIsRegistrationError(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	_, kp, err := svc.CreateAccount("Alice")
	require.NoError(t, err)

	_, err = svc.ImportAccount(kp.Secret(), "Alice again")

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, kp.Address(), regErr.Address)
	assert.Len(t, svc.ListAccounts(), 1)
}

func TestGetAccountsWithBalances_SingleBatchCall(t *testing.T) {
	for _, n := range []int{0, 1, 5, 250} {
		t.Run(fmt.Sprintf("%d accounts", n), func(t *testing.T) {
			svc, nets := newTestService(t, solana.DevnetNetwork)
			for i := 0; i < n; i++ {
				_, _, err := svc.CreateAccount(fmt.Sprintf("acct-%d", i))
				require.NoError(t, err)
			}

			views := svc.GetAccountsWithBalances(context.Background())

			assert.Len(t, views, n)
			want := 1
			if n == 0 {
				want = 0
			}
			assert.Equal(t, want, nets.client(solana.DevnetNetwork).calls())
		})
	}
}

func TestGetAccountsWithBalances_PositionalAlignment(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	a, _, _ := svc.CreateAccount("a")
	b, _, _ := svc.CreateAccount("b")
	c, _, _ := svc.CreateAccount("c")

	api := nets.client(solana.DevnetNetwork)
	api.setBalance(a.Address, 7)
	api.setBalance(c.Address, 9)

	views := svc.GetAccountsWithBalances(context.Background())

	require.Len(t, views, 3)
	assert.Equal(t, []string{a.Address, b.Address, c.Address}, api.lastBatch)
	assert.Equal(t, a.Address, views[0].Account.Address)
	assert.Equal(t, uint64(7), views[0].Balance)
	assert.Equal(t, uint64(0), views[1].Balance)
	assert.Equal(t, uint64(9), views[2].Balance)

	cached, _ := svc.registry.Get(c.Address)
	assert.Equal(t, uint64(9), cached.Balance)
}

func TestGetAccountsWithBalances_BatchFailureDegradesToZero(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	a, _, _ := svc.CreateAccount("a")
	api := nets.client(solana.DevnetNetwork)
	api.setBalance(a.Address, 5)
	svc.GetAccountsWithBalances(context.Background())

	api.batchErr = errBoom
	views := svc.GetAccountsWithBalances(context.Background())

	require.Len(t, views, 1)
	assert.Equal(t, uint64(0), views[0].Balance)

	_, err := svc.RefreshBalances(context.Background())
	assert.ErrorIs(t, err, errBoom)

	cached, _ := svc.registry.Get(a.Address)
	assert.Equal(t, uint64(5), cached.Balance)
}

func TestGetAccountsWithBalances_SOLConversion(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	rich, _, _ := svc.CreateAccount("rich")
	_, _, _ = svc.CreateAccount("empty")
	nets.client(solana.DevnetNetwork).setBalance(rich.Address, 1_500_000_000)

	views := svc.GetAccountsWithBalances(context.Background())

	assert.Equal(t, 1.5, views[0].SOL)
	assert.Equal(t, "1.5", views[0].DisplaySOL())
	assert.Equal(t, 0.0, views[1].SOL)
	assert.Equal(t, "0", views[1].DisplaySOL())
}

func TestSwitchNetwork_TargetsLatestClient(t *testing.T) {
	svc, nets := newTestService(t, solana.TestnetNetwork)
	acct, _, _ := svc.CreateAccount("a")
	nets.client(solana.DevnetNetwork).setBalance(acct.Address, 1)
	nets.client(solana.MainnetNetwork).setBalance(acct.Address, 2)

	svc.SwitchNetwork(solana.DevnetNetwork)
	svc.SwitchNetwork(solana.MainnetNetwork)

	bal, err := svc.GetBalance(context.Background(), acct.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), bal)
	assert.Equal(t, solana.MainnetNetwork, svc.Network())
	assert.Len(t, svc.ListAccounts(), 1)
}

func TestSwitchNetwork_StaleBatchNotCached(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	acct, _, _ := svc.CreateAccount("a")

	devnet := nets.client(solana.DevnetNetwork)
	devnet.setBalance(acct.Address, 100)
	devnet.block = make(chan struct{})
	devnet.entered = make(chan struct{})

	done := make(chan []AccountWithBalance)
	go func() { done <- svc.GetAccountsWithBalances(context.Background()) }()

	<-devnet.entered
	svc.SwitchNetwork(solana.MainnetNetwork)
	close(devnet.block)

	views := <-done
	require.Len(t, views, 1)
	assert.Equal(t, uint64(100), views[0].Balance)

	cached, _ := svc.registry.Get(acct.Address)
	assert.Equal(t, uint64(0), cached.Balance)
}

func TestWatchAccount_PaddedDuplicateIsRegistrationError(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	kp, err := keys.Ed25519{}.Generate()
	require.NoError(t, err)
	addr := kp.Address()

	_, err = svc.WatchAccount(addr, "first")
	require.NoError(t, err)

	_, err = svc.WatchAccount(" "+addr+"\n", "second")
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, addr, regErr.Address)

	list := svc.ListAccounts()
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Label)
}

func TestWatchAccount_StoresCanonicalAddress(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	kp, err := keys.Ed25519{}.Generate()
	require.NoError(t, err)

	acct, err := svc.WatchAccount("\t"+kp.Address()+"  ", "padded")
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), acct.Address)

	_, ok := svc.registry.Get(kp.Address())
	assert.True(t, ok)
	assert.True(t, svc.RemoveAccount(" "+kp.Address()))
	assert.Empty(t, svc.ListAccounts())
}

func TestGetBalance_SendsCanonicalAddress(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	acct, _, err := svc.CreateAccount("a")
	require.NoError(t, err)
	api := nets.client(solana.DevnetNetwork)
	api.setBalance(acct.Address, 42)

	lamports, err := svc.GetBalance(context.Background(), " "+acct.Address+"\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), lamports)
	assert.Equal(t, []string{acct.Address}, api.queried)

	cached, _ := svc.registry.Get(acct.Address)
	assert.Equal(t, uint64(42), cached.Balance)
	assert.Len(t, svc.ListAccounts(), 1)
}

func TestRequestAirdrop_SendsCanonicalAddress(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	acct, _, err := svc.CreateAccount("a")
	require.NoError(t, err)

	_, err = svc.RequestAirdrop(context.Background(), acct.Address+"\r\n", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{acct.Address}, nets.client(solana.DevnetNetwork).airdropTo)
}

func TestRestore_NormalizesPaddedRecord(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	kp, err := keys.Ed25519{}.Generate()
	require.NoError(t, err)

	require.NoError(t, svc.restore(Record{Account: Account{Address: " " + kp.Address(), Label: "saved"}}))
	got, ok := svc.registry.Get(kp.Address())
	require.True(t, ok)
	assert.Equal(t, "saved", got.Label)

	err = svc.restore(Record{Account: Account{Address: kp.Address() + " ", Label: "dup"}, Secret: kp.Secret()})
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Len(t, svc.ListAccounts(), 1)
}

func TestRemoveAccount(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	acct, _, _ := svc.CreateAccount("a")

	assert.True(t, svc.RemoveAccount(acct.Address))
	assert.False(t, svc.RemoveAccount(acct.Address))
	assert.False(t, svc.RemoveAccount("unknown"))
	assert.Empty(t, svc.ListAccounts())
}

func TestRenameAccount(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	acct, _, _ := svc.CreateAccount("a")

	require.NoError(t, svc.RenameAccount(acct.Address, "Bob"))
	got, _ := svc.registry.Get(acct.Address)
	assert.Equal(t, "Bob", got.Label)

	assert.ErrorIs(t, svc.RenameAccount("missing", "x"), ErrNotFound)
}

func TestRequestAirdrop(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	acct, _, _ := svc.CreateAccount("a")

	sig, err := svc.RequestAirdrop(context.Background(), acct.Address, 10)
	require.NoError(t, err)
	assert.Equal(t, "airdrop-sig", sig)

	svc.SwitchNetwork(solana.MainnetNetwork)
	_, err = svc.RequestAirdrop(context.Background(), acct.Address, 10)
	assert.ErrorIs(t, err, ErrAirdropDisabled)
	assert.Zero(t, nets.client(solana.MainnetNetwork).airdrops)

	_, err = svc.RequestAirdrop(context.Background(), "bad", 10)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTransfer(t *testing.T) {
	svc, nets := newTestService(t, solana.DevnetNetwork)
	from, _, _ := svc.CreateAccount("from")
	to, _, _ := svc.CreateAccount("to")

	sig, err := svc.Transfer(context.Background(), from.Address, to.Address, 500)
	require.NoError(t, err)
	assert.Equal(t, "tx-sig", sig)

	sent := nets.client(solana.DevnetNetwork).sent
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0], "tx fee_payer="+from.Address))
}

func TestTransfer_Errors(t *testing.T) {
	svc, _ := newTestService(t, solana.DevnetNetwork)
	from, _, _ := svc.CreateAccount("from")
	watched, err := svc.WatchAccount("11111111111111111111111111111111", "system")
	require.NoError(t, err)

	_, err = svc.Transfer(context.Background(), "missing", from.Address, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Transfer(context.Background(), watched.Address, from.Address, 1)
	assert.ErrorIs(t, err, ErrNoSigningKey)

	_, err = svc.Transfer(context.Background(), from.Address, "bad", 1)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestParseSOL(t *testing.T) {
	l, err := ParseSOL("1.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), l)

	l, err = ParseSOL("0.000000001")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), l)

	for _, bad := range []string{"-1", "0.0000000001", "abc"} {
		_, err := ParseSOL(bad)
		assert.Error(t, err, bad)
	}
}
