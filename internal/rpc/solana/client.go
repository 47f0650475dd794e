package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/fystack/solana-studio/internal/rpc"
	"github.com/fystack/solana-studio/pkg/common/logger"
)

// getMultipleAccounts accepts at most this many keys per request.
const maxAccountsPerRequest = 100

type Config struct {
	Network Network
	// Commitment defaults to Network.DefaultCommitment().
	Commitment      solrpc.CommitmentType
	ConfirmTimeout  time.Duration
	ConfirmInterval time.Duration
	RPC             rpc.ClientConfig
}

type Client struct {
	base            *rpc.Client
	network         Network
	commitment      solrpc.CommitmentType
	confirmTimeout  time.Duration
	confirmInterval time.Duration
}

func NewClient(cfg Config) *Client {
	commitment := cfg.Commitment
	if commitment == "" {
		commitment = cfg.Network.DefaultCommitment()
	}
	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = 30 * time.Second
	}
	confirmInterval := cfg.ConfirmInterval
	if confirmInterval <= 0 {
		confirmInterval = 500 * time.Millisecond
	}
	return &Client{
		base:            rpc.NewClient(cfg.Network.Endpoint(), cfg.RPC),
		network:         cfg.Network,
		commitment:      commitment,
		confirmTimeout:  confirmTimeout,
		confirmInterval: confirmInterval,
	}
}

func (c *Client) Network() Network                  { return c.network }
func (c *Client) Commitment() solrpc.CommitmentType { return c.commitment }
func (c *Client) Endpoint() string                  { return c.base.Endpoint() }

func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	var out contextResult[uint64]
	err := c.base.Call(ctx, "getBalance", []any{address, commitmentConfig{Commitment: string(c.commitment)}}, &out)
	if err != nil {
		return 0, fmt.Errorf("getBalance failed: %w", err)
	}
	return out.Value, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	var out contextResult[*AccountInfo]
	err := c.base.Call(ctx, "getAccountInfo", []any{address, c.accountConfig()}, &out)
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo failed: %w", err)
	}
	return out.Value, nil
}

// GetMultipleAccounts splits addresses into chunks the node accepts and
// sends every chunk in one JSON-RPC batch, so any number of addresses costs
// a single round trip.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []string) ([]*AccountInfo, error) {
	if len(addresses) == 0 {
		return []*AccountInfo{}, nil
	}

	var chunks [][]string
	for start := 0; start < len(addresses); start += maxAccountsPerRequest {
		end := min(start+maxAccountsPerRequest, len(addresses))
		chunks = append(chunks, addresses[start:end])
	}

	calls := make([]rpc.BatchCall, len(chunks))
	for i, chunk := range chunks {
		calls[i] = rpc.BatchCall{Method: "getMultipleAccounts", Params: []any{chunk, c.accountConfig()}}
	}

	var results []json.RawMessage
	if len(calls) == 1 {
		resp, err := c.base.CallRPC(ctx, calls[0].Method, calls[0].Params)
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts failed: %w", err)
		}
		results = []json.RawMessage{resp.Result}
	} else {
		resps, err := c.base.CallBatch(ctx, calls)
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts failed: %w", err)
		}
		for _, resp := range resps {
			results = append(results, resp.Result)
		}
	}

	infos := make([]*AccountInfo, 0, len(addresses))
	for i, raw := range results {
		var out contextResult[[]*AccountInfo]
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, c.batchError(fmt.Errorf("decode chunk %d: %w", i, err))
		}
		if len(out.Value) != len(chunks[i]) {
			return nil, c.batchError(fmt.Errorf("expected %d accounts, got %d", len(chunks[i]), len(out.Value)))
		}
		infos = append(infos, out.Value...)
	}
	return infos, nil
}

func (c *Client) batchError(err error) error {
	return &rpc.NetworkError{Method: "getMultipleAccounts", Endpoint: c.base.Endpoint(), Err: err}
}

func (c *Client) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	// TODO: fail with a NetworkError here instead of warning. account.Service
	// already refuses mainnet airdrops before they reach the facade.
	if !c.network.AllowsAirdrop() {
		logger.Warn("Requesting airdrop on a network that does not support it", "network", c.network.String(), "address", address)
	}

	var sig string
	err := c.base.Call(ctx, "requestAirdrop", []any{address, lamports, commitmentConfig{Commitment: string(c.commitment)}}, &sig)
	if err != nil {
		return "", fmt.Errorf("requestAirdrop failed: %w", err)
	}
	return sig, nil
}

// SendTransaction submits an encoded payload without waiting for confirmation.
func (c *Client) SendTransaction(ctx context.Context, payload string) (string, error) {
	var sig string
	err := c.base.Call(ctx, "sendTransaction", []any{payload, sendConfig{
		Encoding:            "base64",
		PreflightCommitment: string(c.commitment),
	}}, &sig)
	if err != nil {
		return "", fmt.Errorf("sendTransaction failed: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls getSignatureStatuses until the signature reaches
// the client's commitment level. It returns false without error when the
// confirm timeout elapses first. Transient transport failures are retried
// until then; errors reported by the node end polling.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) (bool, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.confirmInterval)
	defer ticker.Stop()

	for {
		status, err := c.getSignatureStatus(pollCtx, signature)
		var rpcErr *rpc.RPCError
		switch {
		case err != nil && ctx.Err() != nil:
			return false, ctx.Err()
		case err != nil && pollCtx.Err() != nil:
			return false, nil
		case err != nil && errors.As(err, &rpcErr):
			return false, err
		case err != nil:
			// Transport failures and 5xx may clear before the timeout.
			logger.Debug("Signature status poll failed, retrying", "signature", signature, "err", err)
		case status != nil && status.Err != nil:
			return false, fmt.Errorf("transaction %s failed: %v", signature, status.Err)
		case status != nil && commitmentRank(solrpc.CommitmentType(status.ConfirmationStatus)) >= commitmentRank(c.commitment):
			return true, nil
		}

		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return false, err
			}
			logger.Debug("Confirmation timed out", "signature", signature, "timeout", c.confirmTimeout)
			return false, nil
		case <-ticker.C:
		}
	}
}

func (c *Client) getSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	var out contextResult[[]*SignatureStatus]
	err := c.base.Call(ctx, "getSignatureStatuses", []any{[]string{signature}, signatureStatusConfig{SearchTransactionHistory: true}}, &out)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses failed: %w", err)
	}
	if len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

// TestConnection probes the remote endpoint. It says nothing about the
// locally supervised validator process.
func (c *Client) TestConnection(ctx context.Context) bool {
	var health string
	if err := c.base.Call(ctx, "getHealth", nil, &health); err != nil {
		var rpcErr *rpc.RPCError
		if errors.As(err, &rpcErr) {
			logger.Debug("Endpoint reachable but unhealthy", "endpoint", c.base.Endpoint(), "err", rpcErr)
		}
		return false
	}
	return health == "ok"
}

func (c *Client) accountConfig() accountConfig {
	return accountConfig{Encoding: "base64", Commitment: string(c.commitment)}
}
