package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fystack/solana-studio/pkg/common/logger"
	"github.com/fystack/solana-studio/pkg/ratelimiter"
	"github.com/fystack/solana-studio/pkg/retry"
)

type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// Limiter is shared across clients; buckets are keyed by endpoint.
	Limiter    *ratelimiter.Pool
	HTTPClient *http.Client
	Auth       *AuthConfig
}

// Client is a JSON-RPC 2.0 client bound to a single HTTP(S) endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *ratelimiter.Pool
	auth       *AuthConfig
	maxRetries int
	retryDelay time.Duration

	rpcID atomic.Int64
}

func NewClient(endpoint string, cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 200 * time.Millisecond
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		limiter:    cfg.Limiter,
		auth:       cfg.Auth,
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// CallRPC performs method with params, retrying transport failures.
// Errors returned by the node itself are not retried.
func (c *Client) CallRPC(ctx context.Context, method string, params any) (*RPCResponse, error) {
	var resp *RPCResponse
	err := c.withRetry(ctx, method, func() (err error) {
		resp, err = c.do(ctx, method, params)
		return err
	})
	if err != nil {
		return nil, &NetworkError{Method: method, Endpoint: c.endpoint, Err: err}
	}
	return resp, nil
}

// Call performs method and decodes the result into out (when non-nil).
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	resp, err := c.CallRPC(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || resp.IsNull() {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return &NetworkError{Method: method, Endpoint: c.endpoint, Err: fmt.Errorf("decode %s result: %w", method, err)}
	}
	return nil
}

// BatchCall is one entry of a JSON-RPC batch.
type BatchCall struct {
	Method string
	Params any
}

// CallBatch sends calls as a single JSON-RPC batch in one HTTP round trip
// and returns the responses in call order. The first RPC error in the
// batch fails the whole call.
func (c *Client) CallBatch(ctx context.Context, calls []BatchCall) ([]*RPCResponse, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	method := calls[0].Method
	var resps []*RPCResponse
	err := c.withRetry(ctx, method, func() (err error) {
		resps, err = c.doBatch(ctx, calls)
		return err
	})
	if err != nil {
		return nil, &NetworkError{Method: method, Endpoint: c.endpoint, Err: err}
	}
	return resps, nil
}

func (c *Client) withRetry(ctx context.Context, method string, attempt func() error) error {
	if c.maxRetries <= 0 {
		return attempt()
	}
	return retry.ExponentialWithContext(ctx, func() error {
		if err := attempt(); err != nil {
			if !retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	}, retry.ExponentialConfig{
		InitialInterval: c.retryDelay,
		MaxRetries:      uint64(c.maxRetries),
		OnRetry: func(err error, next time.Duration) {
			logger.Debug("Retrying RPC call", "endpoint", c.endpoint, "method", method, "next", next, "err", err)
		},
	})
}

func (c *Client) do(ctx context.Context, method string, params any) (*RPCResponse, error) {
	req := &RPCRequest{ID: c.rpcID.Add(1), JSONRPC: "2.0", Method: method, Params: params}
	data, err := c.post(ctx, method, req)
	if err != nil {
		return nil, err
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return &rpcResp, nil
}

func (c *Client) doBatch(ctx context.Context, calls []BatchCall) ([]*RPCResponse, error) {
	reqs := make([]RPCRequest, len(calls))
	index := make(map[int64]int, len(calls))
	for i, call := range calls {
		id := c.rpcID.Add(1)
		reqs[i] = RPCRequest{ID: id, JSONRPC: "2.0", Method: call.Method, Params: call.Params}
		index[id] = i
	}
	data, err := c.post(ctx, calls[0].Method, reqs)
	if err != nil {
		return nil, err
	}

	var batch []RPCResponse
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("unmarshal RPC batch response: %w", err)
	}

	// Nodes may answer a batch in any order; match on ID.
	out := make([]*RPCResponse, len(calls))
	for i := range batch {
		resp := &batch[i]
		pos, ok := index[resp.ID]
		if !ok {
			return nil, fmt.Errorf("unexpected response id %d in batch", resp.ID)
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		out[pos] = resp
	}
	for i, resp := range out {
		if resp == nil {
			return nil, fmt.Errorf("missing response for batch entry %d", i)
		}
	}
	return out, nil
}

// post sends payload and returns the body of a 2xx response.
func (c *Client) post(ctx context.Context, method string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.auth.apply(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logger.Debug("HTTP request completed", "url", c.endpoint, "method", method, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// retryable reports whether a failed attempt may succeed when repeated.
func retryable(err error) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
