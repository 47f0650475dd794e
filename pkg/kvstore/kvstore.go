package kvstore

import (
	"encoding/json"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyEmpty    = errors.New("key is empty")
	ErrNilValue    = errors.New("value is nil")
)

type KVPair struct {
	Key   string
	Value []byte
}

// KVStore persists snapshots outside the in-memory registries.
type KVStore interface {
	Set(k string, v []byte) error
	Get(k string) ([]byte, error)
	// SetAny and GetAny go through the store's codec.
	SetAny(k string, v any) error
	GetAny(k string, v any) (found bool, err error)
	// List returns pairs whose key starts with prefix, with the store prefix stripped.
	List(prefix string) ([]KVPair, error)
	Delete(k string) error
	Close() error
}

// Codec encodes/decodes Go values to/from slices of bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var JSON = JSONCodec{}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func checkKeyAndValue(k string, v any) error {
	if k == "" {
		return ErrKeyEmpty
	}
	if v == nil {
		return ErrNilValue
	}
	return nil
}
