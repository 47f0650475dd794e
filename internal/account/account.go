// Package account keeps the in-memory account registry and joins it with
// live balances from the RPC facade.
package account

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fystack/solana-studio/internal/keys"
	"github.com/fystack/solana-studio/pkg/common/constant"
)

var (
	// ErrDecode is returned by ImportAccount for malformed secret material.
	ErrDecode          = keys.ErrDecode
	ErrNotFound        = errors.New("account not found")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrNoSigningKey    = errors.New("no signing key for account")
	ErrAirdropDisabled = errors.New("airdrop not available on this network")
)

// RegistrationError reports an address the registry already holds.
type RegistrationError struct {
	Address string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("account %s already registered", e.Address)
}

// Account is a registered address. Balance is the last value fetched.
type Account struct {
	Address   string    `json:"address"`
	Label     string    `json:"label"`
	Balance   uint64    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountWithBalance is an account joined with a freshly fetched balance.
type AccountWithBalance struct {
	Account Account `json:"account"`
	Balance uint64  `json:"balance"`
	SOL     float64 `json:"sol"`
}

func withBalance(a Account, lamports uint64) AccountWithBalance {
	a.Balance = lamports
	return AccountWithBalance{
		Account: a,
		Balance: lamports,
		SOL:     LamportsToSOL(lamports),
	}
}

// DisplaySOL renders the balance without float rounding, e.g. "1.5".
func (a AccountWithBalance) DisplaySOL() string {
	return FormatSOL(a.Balance)
}

func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / constant.LamportsPerSOL
}

func FormatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}

// ParseSOL converts a decimal SOL amount such as "0.25" into lamports.
func ParseSOL(amount string) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: negative", amount)
	}
	lamports := d.Shift(9)
	if !lamports.Equal(lamports.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q: more than 9 decimal places", amount)
	}
	if !lamports.BigInt().IsUint64() {
		return 0, fmt.Errorf("invalid amount %q: too large", amount)
	}
	return lamports.BigInt().Uint64(), nil
}
