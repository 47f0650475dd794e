// Package txbuilder accumulates instructions and signers against a fee payer
// and submits the result through an RPC facade.
package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/fystack/solana-studio/pkg/common/logger"
)

var (
	ErrEmptyTransaction = errors.New("transaction has no instructions")
	ErrAlreadySubmitted = errors.New("transaction already submitted")
	ErrNilSigner        = errors.New("nil signer")
	ErrNilInstruction   = errors.New("nil instruction")
)

// Signer is satisfied by keys.Keypair.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(message []byte) (solana.Signature, error)
}

// Sender is the slice of the RPC facade the builder needs.
type Sender interface {
	SendTransaction(ctx context.Context, payload string) (string, error)
}

// Draft is a snapshot of the builder's accumulated state.
type Draft struct {
	FeePayer     solana.PublicKey
	Instructions []solana.Instruction
	Signers      []Signer
}

type Option func(*Builder)

func WithEncoder(e Encoder) Option {
	return func(b *Builder) { b.encoder = e }
}

type Builder struct {
	mu        sync.Mutex
	draft     Draft
	encoder   Encoder
	err       error
	submitted bool
}

func New(feePayer solana.PublicKey, opts ...Option) *Builder {
	b := &Builder{
		draft:   Draft{FeePayer: feePayer},
		encoder: PlaceholderEncoder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddInstruction appends ix. Duplicates are kept in call order. The first
// invalid call is remembered and returned by BuildAndSend.
func (b *Builder) AddInstruction(ix solana.Instruction) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.err != nil:
	case b.submitted:
		b.err = ErrAlreadySubmitted
	case ix == nil:
		b.err = ErrNilInstruction
	default:
		b.draft.Instructions = append(b.draft.Instructions, ix)
	}
	return b
}

func (b *Builder) AddSigner(s Signer) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.err != nil:
	case b.submitted:
		b.err = ErrAlreadySubmitted
	case s == nil:
		b.err = ErrNilSigner
	default:
		b.draft.Signers = append(b.draft.Signers, s)
	}
	return b
}

// Draft returns a copy of the accumulated state.
func (b *Builder) Draft() Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Draft{
		FeePayer:     b.draft.FeePayer,
		Instructions: append([]solana.Instruction(nil), b.draft.Instructions...),
		Signers:      append([]Signer(nil), b.draft.Signers...),
	}
}

// BuildAndSend encodes the draft and submits it. A draft can be submitted
// once; it is frozen after a successful send.
func (b *Builder) BuildAndSend(ctx context.Context, sender Sender) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return "", b.err
	}
	if b.submitted {
		return "", ErrAlreadySubmitted
	}
	if len(b.draft.Instructions) == 0 {
		return "", ErrEmptyTransaction
	}

	payload, err := b.encoder.Encode(b.draft)
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}

	sig, err := sender.SendTransaction(ctx, payload)
	if err != nil {
		return "", err
	}
	b.submitted = true
	logger.Debug("Transaction submitted",
		"fee_payer", b.draft.FeePayer.String(),
		"instructions", len(b.draft.Instructions),
		"signature", sig,
	)
	return sig, nil
}

// Transfer is a system program transfer of lamports from one account to another.
func Transfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}
