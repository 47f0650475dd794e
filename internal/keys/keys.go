// Package keys is the cryptographic boundary of the studio: keypair
// generation, secret decoding and address validation.
package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ErrDecode is returned for secret material that cannot be turned into a keypair.
var ErrDecode = errors.New("invalid secret material")

// Keypair is an ed25519 signing key with its base58 address.
type Keypair struct {
	private solana.PrivateKey
}

func (k Keypair) Address() string {
	return k.private.PublicKey().String()
}

func (k Keypair) PublicKey() solana.PublicKey {
	return k.private.PublicKey()
}

// Secret returns the 64-byte secret key in base58, the format Phantom and
// the solana CLI export.
func (k Keypair) Secret() string {
	return k.private.String()
}

func (k Keypair) Sign(message []byte) (solana.Signature, error) {
	return k.private.Sign(message)
}

// Provider is the contract the account service consumes.
type Provider interface {
	Generate() (Keypair, error)
	DecodeSecret(material string) (Keypair, error)
	ValidateAddress(address string) bool
}

// Ed25519 implements Provider with solana-go keys.
type Ed25519 struct{}

var _ Provider = Ed25519{}

func (Ed25519) Generate() (Keypair, error) {
	pk, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Keypair{}, fmt.Errorf("generate keypair: %w", err)
	}
	return Keypair{private: pk}, nil
}

// DecodeSecret accepts a base58 secret key or a JSON byte array as written
// by `solana-keygen` (e.g. "[12,34,...]"), both 64 bytes long.
func (Ed25519) DecodeSecret(material string) (Keypair, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return Keypair{}, fmt.Errorf("%w: empty input", ErrDecode)
	}

	var raw []byte
	if strings.HasPrefix(material, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(material), &ints); err != nil {
			return Keypair{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return Keypair{}, fmt.Errorf("%w: byte %d out of range", ErrDecode, i)
			}
			raw[i] = byte(v)
		}
	} else {
		decoded, err := base58.Decode(material)
		if err != nil {
			return Keypair{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		raw = decoded
	}

	if len(raw) != ed25519.PrivateKeySize {
		return Keypair{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrDecode, ed25519.PrivateKeySize, len(raw))
	}
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return Keypair{}, fmt.Errorf("%w: public key does not match seed", ErrDecode)
	}
	return Keypair{private: solana.PrivateKey(derived)}, nil
}

func (Ed25519) ValidateAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(strings.TrimSpace(address))
	return err == nil
}

// ParseAddress decodes a base58 address into a public key.
func ParseAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(address))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse address %q: %w", address, err)
	}
	return pk, nil
}
