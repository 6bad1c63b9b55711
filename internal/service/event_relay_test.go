package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	keys   []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var testTopics = config.KafkaConfig{
	TicketsTopic:     "tickets",
	EscalationsTopic: "escalations",
	MetricsTopic:     "metrics",
	DLQTopic:         "dlq",
}

func TestTopicFor(t *testing.T) {
	relay := NewEventRelay(nil, nil, testTopics, nil)

	cases := []struct {
		event events.Event
		want  string
	}{
		{events.Event{Type: events.EventTicketCreated}, "tickets"},
		{events.Event{Type: events.EventTicketMessageAdded}, "tickets"},
		{events.Event{Type: events.EventTicketPriorityChanged}, "escalations"},
		{events.Event{Type: events.EventTicketStatusChanged, Payload: events.TicketStatusChangedPayload{NewStatus: domain.TicketStatusInProgress}}, "escalations"},
		{events.Event{Type: events.EventTicketStatusChanged, Payload: events.TicketStatusChangedPayload{NewStatus: domain.TicketStatusResolved}}, "tickets"},
		{events.Event{Type: events.EventExchangeCompleted}, "metrics"},
		{events.Event{Type: events.EventResponderFailed}, "dlq"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, relay.TopicFor(tc.event), string(tc.event.Type))
	}
}

func TestRelayForwardsEveryEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &recordingPublisher{}
	NewEventRelay(dispatcher, publisher, testTopics, nil).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t1"}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventResponderFailed, TicketID: "t1"}))

	assert.Equal(t, []string{"tickets", "dlq"}, publisher.topics)
	assert.Equal(t, []string{"t1", "t1"}, publisher.keys)
}
