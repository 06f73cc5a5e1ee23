// Package messaging connects to the NATS server auth events are fanned out to.
package messaging

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/config"
)

// Connect opens a NATS connection for cfg. It returns nil, nil when no URL is
// configured so callers can treat fan-out as optional.
func Connect(cfg config.EventsConfig, clientName string, logger *zap.Logger) (*nats.Conn, error) {
	if cfg.NatsURL == "" {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.NatsURL, err)
	}

	logger.Info("connected to nats", zap.String("url", nc.ConnectedUrl()))
	return nc, nil
}

// Close drains and closes nc. It is safe on nil.
func Close(nc *nats.Conn) {
	if nc == nil {
		return
	}
	if err := nc.Drain(); err != nil {
		nc.Close()
	}
}
