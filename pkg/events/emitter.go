package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeValidatorStatus = "validator.status"
	TypeTransaction     = "transaction"
	TypeAirdrop         = "airdrop"
	TypeAccount         = "account"
)

type StudioEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Network   string `json:"network,omitempty"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type TransactionEvent struct {
	Signature string `json:"signature"`
	From      string `json:"from"`
	To        string `json:"to"`
	Lamports  uint64 `json:"lamports"`
}

type AccountEvent struct {
	Action  string `json:"action"` // created | imported | removed | renamed
	Address string `json:"address"`
	Label   string `json:"label,omitempty"`
}

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type Emitter interface {
	EmitStatus(status any) error
	EmitTransaction(network string, tx TransactionEvent) error
	EmitAirdrop(network string, tx TransactionEvent) error
	EmitAccount(ev AccountEvent) error
	Emit(event StudioEvent) error
	Close()
}

type emitter struct {
	pub     Publisher
	subject string
	closer  func()
}

// NewEmitter publishes JSON events to subject. closer, if set, runs on Close.
func NewEmitter(pub Publisher, subject string, closer func()) Emitter {
	return &emitter{
		pub:     pub,
		subject: subject,
		closer:  closer,
	}
}

func (e *emitter) EmitStatus(status any) error {
	return e.Emit(StudioEvent{Type: TypeValidatorStatus, Data: status})
}

func (e *emitter) EmitTransaction(network string, tx TransactionEvent) error {
	return e.Emit(StudioEvent{Type: TypeTransaction, Network: network, Data: tx})
}

func (e *emitter) EmitAirdrop(network string, tx TransactionEvent) error {
	return e.Emit(StudioEvent{Type: TypeAirdrop, Network: network, Data: tx})
}

func (e *emitter) EmitAccount(ev AccountEvent) error {
	return e.Emit(StudioEvent{Type: TypeAccount, Data: ev})
}

func (e *emitter) Emit(event StudioEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.pub.Publish(e.subject+"."+event.Type, data)
}

func (e *emitter) Close() {
	if e.closer != nil {
		e.closer()
	}
}

type noop struct{}

// Noop discards every event. Used when no NATS URL is configured.
func Noop() Emitter { return noop{} }

func (noop) EmitStatus(any) error                           { return nil }
func (noop) EmitTransaction(string, TransactionEvent) error { return nil }
func (noop) EmitAirdrop(string, TransactionEvent) error     { return nil }
func (noop) EmitAccount(AccountEvent) error                 { return nil }
func (noop) Emit(StudioEvent) error                         { return nil }
func (noop) Close()                                         {}
