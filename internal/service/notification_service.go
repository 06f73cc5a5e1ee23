package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/config"
	"github.com/spec-kit/user-registry/internal/events"
)

// EventPublisher forwards encoded events to a broker. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// NotificationService handles emitting notifications for auth events.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	logger     *zap.Logger
	cfg        config.EventsConfig
}

// NewNotificationService creates the service. publisher may be nil, in which
// case events are only logged.
func NewNotificationService(dispatcher events.Dispatcher, publisher EventPublisher, logger *zap.Logger, cfg config.EventsConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventUserSignedIn, n.handleUserSignedIn)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("user_id", event.UserID))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleUserSignedIn(ctx context.Context, event events.Event) error {
	n.logger.Info("UserSignedIn", zap.String("user_id", event.UserID))
	return n.forward(ctx, event)
}

// Subject is the broker subject an event type is published on.
func (n *NotificationService) Subject(eventType events.EventType) string {
	if n.cfg.SubjectPrefix == "" {
		return string(eventType)
	}
	return n.cfg.SubjectPrefix + "." + string(eventType)
}

func (n *NotificationService) forward(_ context.Context, event events.Event) error {
	if n.publisher == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	subject := n.Subject(event.Type)
	if err := n.publisher.Publish(subject, data); err != nil {
		n.logger.Warn("publish event failed", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	n.logger.Debug("event published", zap.String("subject", subject), zap.String("event_id", event.ID))
	return nil
}
