package worker

import (
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/service"
)

// StartEventWorkers registers the event relay and metric subscribers.
func StartEventWorkers(dispatcher events.Dispatcher, relay *service.EventRelay, metrics *observability.Metrics) {
	if relay != nil {
		relay.RegisterHandlers()
	}
	service.RegisterMetricsHandlers(dispatcher, metrics)
}
