package solana

import (
	"context"

	solrpc "github.com/gagliardetto/solana-go/rpc"
)

// API is the RPC facade consumed by the account service and the
// transaction builder.
type API interface {
	Network() Network
	Commitment() solrpc.CommitmentType

	// GetBalance returns 0 for accounts that do not exist.
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)
	// GetMultipleAccounts returns one entry per address in request order;
	// nil marks an account that does not exist.
	GetMultipleAccounts(ctx context.Context, addresses []string) ([]*AccountInfo, error)
	RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error)
	SendTransaction(ctx context.Context, payload string) (string, error)
	ConfirmTransaction(ctx context.Context, signature string) (bool, error)
	TestConnection(ctx context.Context) bool
}

var _ API = (*Client)(nil)
