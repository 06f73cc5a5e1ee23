// Package worker hosts the background side of auth event delivery.
package worker

import (
	"context"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/config"
	"github.com/spec-kit/user-registry/internal/events"
	"github.com/spec-kit/user-registry/internal/messaging"
	"github.com/spec-kit/user-registry/internal/service"
)

// NotificationWorker owns the notification handlers and the optional NATS
// connection they publish to.
type NotificationWorker struct {
	conn   *nats.Conn
	logger *zap.Logger
	done   chan struct{}
}

// StartNotificationWorker subscribes the notification handlers to dispatcher.
// When cfg names a NATS server events are also published there; a connection
// failure downgrades to log-only delivery. The connection is drained when ctx
// ends or Stop is called.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, cfg config.EventsConfig, clientName string, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &NotificationWorker{logger: logger, done: make(chan struct{})}

	conn, err := messaging.Connect(cfg, clientName, logger)
	if err != nil {
		logger.Warn("event fan-out disabled", zap.Error(err))
	}
	w.conn = conn

	var publisher service.EventPublisher
	if conn != nil {
		publisher = conn
	}
	service.NewNotificationService(dispatcher, publisher, logger, cfg).RegisterHandlers()

	go func() {
		select {
		case <-ctx.Done():
		case <-w.done:
		}
		messaging.Close(w.conn)
	}()
	return w
}

// Publishing reports whether events are forwarded to NATS.
func (w *NotificationWorker) Publishing() bool {
	return w != nil && w.conn != nil
}

// Stop releases the broker connection.
func (w *NotificationWorker) Stop() {
	if w == nil {
		return
	}
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}
