package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/analytics"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/channel"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/escalation"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/responder"
	"github.com/spec-kit/support-desk/internal/service"
)

const (
	twilioToken = "twilio-secret"
	webhookURL  = "https://support.example.com/api/webhooks/whatsapp"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	service.RegisterMetricsHandlers(dispatcher, metrics)

	customers := service.NewCustomerService(service.CustomerDependencies{CustomerRepo: store.Customers()})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets(),
		MessageRepo: store.Messages(),
		HistoryRepo: store.History(),
		Dispatcher:  dispatcher,
	})
	orchestrator := service.NewReplyOrchestrator(service.OrchestratorDependencies{
		Customers:  customers,
		Tickets:    tickets,
		Responder:  responder.NewLLMResponder(responder.MockProvider{}, 256, time.Second),
		Policy:     escalation.NewPolicy(0.3, config.DefaultEscalationKeywords),
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})

	app := NewApp(config.AppConfig{Name: "test"}, config.IntakeConfig{MaxBodyBytes: 64 << 10})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second, "*")
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("test", "dev", store, &persistence.Redis{}),
		Support:   handlers.NewSupportHandler(orchestrator, channel.TwilioWebhook{AuthToken: twilioToken}, webhookURL, logger),
		Tickets:   handlers.NewTicketsHandler(tickets),
		Customers: handlers.NewCustomersHandler(customers),
		Metrics:   handlers.NewMetricsHandler(analytics.NewAggregator(store)),
		Collector: metrics,
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	return e
}

const webForm = `{"name":"Jane Doe","email":"jane@example.com","subject":"Export","message":"How do I export my data?"}`

func TestSubmitWebFormCreatesTicket(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, fiber.MethodPost, "/api/support/submit", webForm)
	require.Equal(t, fiber.StatusCreated, status, body)
	ticketID, _ := body["ticket_id"].(string)
	require.NotEmpty(t, ticketID)
	assert.Equal(t, "open", body["status"])
	assert.Equal(t, false, body["escalated"])
	assert.Contains(t, body["reply"], "The Support Team")

	status, body = do(t, app, fiber.MethodGet, "/api/tickets/"+ticketID, "")
	require.Equal(t, fiber.StatusOK, status)
	messages, _ := body["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "customer", first["role"])
	assert.Equal(t, 0.5, first["sentiment_score"])
}

func TestSubmitValidation(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, fiber.MethodPost, "/api/support/submit", `{"name":"Jane","subject":"x","message":"y"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	e := errorOf(t, body)
	assert.Equal(t, "VALIDATION_FAILED", e["code"])
	assert.Equal(t, "email", e["details"].(map[string]any)["field"])

	status, body = do(t, app, fiber.MethodPost, "/api/support/whatsapp/submit", `{"phone":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "body", errorOf(t, body)["details"].(map[string]any)["field"])

	status, body = do(t, app, fiber.MethodGet, "/api/customers", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body["data"])
}

func TestNegativeSubmissionAutoEscalates(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, fiber.MethodPost, "/api/support/gmail/submit",
		`{"email":"bob@example.com","subject":"Outage","message":"This is terrible and unacceptable"}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, true, body["escalated"])
	assert.Equal(t, "in_progress", body["status"])
	assert.Equal(t, "high", body["priority"])
}

func TestTicketActions(t *testing.T) {
	app := newTestApp(t)
	_, created := do(t, app, fiber.MethodPost, "/api/support/submit", webForm)
	id := created["ticket_id"].(string)

	status, body := do(t, app, fiber.MethodPost, "/api/tickets/"+id+"/escalate", `{"comment":"vip"}`)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "in_progress", body["status"])

	for i := 0; i < 2; i++ {
		status, body = do(t, app, fiber.MethodPost, "/api/tickets/"+id+"/resolve", "")
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Equal(t, "resolved", body["status"])
		assert.NotNil(t, body["resolved_at"])
	}

	status, body = do(t, app, fiber.MethodGet, "/api/tickets/"+id+"/history", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 3)

	status, body = do(t, app, fiber.MethodPost, "/api/tickets/missing/resolve", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorOf(t, body)["code"])
}

func TestListTicketsFilters(t *testing.T) {
	app := newTestApp(t)
	do(t, app, fiber.MethodPost, "/api/support/submit", webForm)
	do(t, app, fiber.MethodPost, "/api/support/whatsapp/submit", `{"phone":"+1 555 010 0999","message":"hi there"}`)

	status, body := do(t, app, fiber.MethodGet, "/api/tickets?channel=whatsapp", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "whatsapp", items[0].(map[string]any)["source_channel"])

	status, body = do(t, app, fiber.MethodGet, "/api/tickets?status=closed", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "status", errorOf(t, body)["details"].(map[string]any)["field"])

	status, _ = do(t, app, fiber.MethodGet, "/api/tickets?limit=0", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCustomersEndpoints(t *testing.T) {
	app := newTestApp(t)
	do(t, app, fiber.MethodPost, "/api/support/gmail/submit", `{"email":"j.doe@example.com","subject":"Hi","message":"Hello"}`)

	status, body := do(t, app, fiber.MethodGet, "/api/customers?search=J.DOE", "")
	require.Equal(t, fiber.StatusOK, status)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	customer := items[0].(map[string]any)
	assert.Equal(t, "j.doe", customer["display_name"])

	status, body = do(t, app, fiber.MethodGet, "/api/customers/"+customer["id"].(string), "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "j.doe@example.com", body["email"])

	status, _ = do(t, app, fiber.MethodGet, "/api/customers/nope", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMetricsOverview(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, fiber.MethodGet, "/api/metrics/overview", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), body["total_tickets"])
	assert.Equal(t, float64(0), body["avg_sentiment"])
	assert.Len(t, body["tickets_by_status"], 3)

	do(t, app, fiber.MethodPost, "/api/support/submit", webForm)
	_, body = do(t, app, fiber.MethodGet, "/api/metrics/overview", "")
	assert.Equal(t, float64(1), body["total_tickets"])
	assert.Equal(t, float64(1), body["tickets_by_channel"].(map[string]any)["web_form"])
}

func TestConversationsList(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, fiber.MethodGet, "/api/conversations", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body["data"])

	do(t, app, fiber.MethodPost, "/api/support/submit", webForm)
	status, body = do(t, app, fiber.MethodGet, "/api/conversations", "")
	require.Equal(t, fiber.StatusOK, status)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	conv := items[0].(map[string]any)
	assert.Equal(t, "Jane Doe", conv["customer_name"])
	assert.Equal(t, "web_form", conv["initial_channel"])
	assert.Equal(t, 0.5, conv["sentiment_score"])
	assert.Equal(t, float64(2), conv["message_count"])
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, fiber.MethodGet, "/health", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	channels := body["channels"].(map[string]any)
	assert.Equal(t, "connected", channels["database"])
	assert.Equal(t, "active", channels["web_form"])
	assert.NotContains(t, channels, "redis")

	status, body = do(t, app, fiber.MethodGet, "/health/ready", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestWhatsAppWebhookSignature(t *testing.T) {
	app := newTestApp(t)
	form := url.Values{
		"From":        {"whatsapp:+15550100999"},
		"Body":        {"Where is my order?"},
		"ProfileName": {"Sam"},
		"MessageSid":  {"SM123"},
	}

	send := func(signature string) (int, string, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/api/webhooks/whatsapp", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Twilio-Signature", signature)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, resp.Header.Get("Content-Type"), string(raw)
	}

	status, _, _ := send("bogus")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, contentType, payload := send(channel.TwilioWebhook{AuthToken: twilioToken}.Sign(webhookURL, form))
	require.Equal(t, fiber.StatusOK, status, payload)
	assert.Contains(t, contentType, "application/xml")
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`, payload)

	status, body := do(t, app, fiber.MethodGet, "/api/tickets?channel=whatsapp", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])
}

func TestPrometheusAndUnknownRoutes(t *testing.T) {
	app := newTestApp(t)
	do(t, app, fiber.MethodGet, "/health/live", "")

	status, body := do(t, app, fiber.MethodGet, "/nowhere", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorOf(t, body)["code"])

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "support_http_requests_total")
}
