package solana

// Minimal JSON-RPC result types for the account and transaction methods.

type contextResult[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

// AccountInfo is the on-chain state of an account as returned by
// getAccountInfo / getMultipleAccounts with base64 encoding.
type AccountInfo struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [payload, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
	Space      uint64   `json:"space"`
}

type SignatureStatus struct {
	Slot               uint64  `json:"slot"`
	Confirmations      *uint64 `json:"confirmations"`
	Err                any     `json:"err"`
	ConfirmationStatus string  `json:"confirmationStatus"` // processed | confirmed | finalized
}

type commitmentConfig struct {
	Commitment string `json:"commitment,omitempty"`
}

type accountConfig struct {
	Encoding   string `json:"encoding"`
	Commitment string `json:"commitment,omitempty"`
}

type sendConfig struct {
	Encoding            string `json:"encoding"`
	PreflightCommitment string `json:"preflightCommitment,omitempty"`
}

type signatureStatusConfig struct {
	SearchTransactionHistory bool `json:"searchTransactionHistory"`
}
