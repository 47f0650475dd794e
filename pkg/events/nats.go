package events

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fystack/solana-studio/pkg/common/logger"
)

// Connect dials NATS with reconnect-forever semantics and returns an
// emitter publishing under subject. The connection is drained on Close.
func Connect(url, subject string) (Emitter, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("solana-studio"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(natsErrHandler),
	)
	if err != nil {
		return nil, err
	}
	return NewEmitter(nc, subject, func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("Drain NATS connection", "err", err)
		}
	}), nil
}

func natsErrHandler(_ *nats.Conn, sub *nats.Subscription, natsErr error) {
	logger.Error("NATS error", "err", natsErr)
	if errors.Is(natsErr, nats.ErrSlowConsumer) && sub != nil {
		pending, _, err := sub.Pending()
		if err != nil {
			logger.Error("Get pending messages", "err", err)
			return
		}
		logger.Error("Falling behind with pending messages on subject", "pending", pending, "subject", sub.Subject)
	}
}
