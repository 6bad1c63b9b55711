package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/messaging"
	"github.com/spec-kit/support-desk/internal/observability"
)

// EventRelay logs domain events and forwards them to Kafka topics.
type EventRelay struct {
	dispatcher events.Dispatcher
	publisher  messaging.Publisher
	topics     config.KafkaConfig
	logger     *zap.Logger
}

// NewEventRelay creates the relay. A nil publisher only logs.
func NewEventRelay(dispatcher events.Dispatcher, publisher messaging.Publisher, topics config.KafkaConfig, logger *zap.Logger) *EventRelay {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &EventRelay{
		dispatcher: dispatcher,
		publisher:  publisher,
		topics:     topics,
		logger:     loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to events.
func (r *EventRelay) RegisterHandlers() {
	if r.dispatcher == nil {
		return
	}
	events.SubscribeAll(r.dispatcher, r.handle)
}

func (r *EventRelay) handle(ctx context.Context, event events.Event) error {
	topic := r.TopicFor(event)
	r.logger.Info(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("topic", topic),
		zap.Any("payload", event.Payload))
	return r.publisher.Publish(ctx, topic, event.TicketID, event)
}

// TopicFor routes an event to its Kafka topic.
func (r *EventRelay) TopicFor(event events.Event) string {
	switch event.Type {
	case events.EventTicketPriorityChanged:
		return r.topics.EscalationsTopic
	case events.EventTicketStatusChanged:
		if p, ok := event.Payload.(events.TicketStatusChangedPayload); ok && p.NewStatus == domain.TicketStatusInProgress {
			return r.topics.EscalationsTopic
		}
		return r.topics.TicketsTopic
	case events.EventExchangeCompleted:
		return r.topics.MetricsTopic
	case events.EventResponderFailed:
		return r.topics.DLQTopic
	}
	return r.topics.TicketsTopic
}

// RegisterMetricsHandlers feeds lifecycle counters from events.
func RegisterMetricsHandlers(dispatcher events.Dispatcher, metrics *observability.Metrics) {
	if dispatcher == nil || metrics == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketStatusChanged, func(_ context.Context, event events.Event) error {
		p, ok := event.Payload.(events.TicketStatusChangedPayload)
		if !ok {
			return nil
		}
		metrics.RecordStatusChange(string(p.OldStatus), string(p.NewStatus))
		if p.NewStatus == domain.TicketStatusInProgress {
			source := observability.EscalationManual
			if event.Actor == domain.ActorSystem {
				source = observability.EscalationAuto
			}
			metrics.RecordEscalation(source)
		}
		return nil
	})
}
