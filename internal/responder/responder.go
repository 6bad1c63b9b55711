// Package responder produces assistant replies and sentiment scores for ticket threads.
package responder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ErrMalformedReply is returned when a provider answer lacks a usable sentiment tag or text.
var ErrMalformedReply = errors.New("malformed responder reply")

// Reply is the outcome of one responder call.
type Reply struct {
	Text      string
	Sentiment float64
}

// Responder answers the latest customer message of a ticket.
type Responder interface {
	Respond(ctx context.Context, ticket *domain.Ticket, history []domain.TicketMessage) (*Reply, error)
}

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is a provider-neutral completion request.
type Request struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
}

// Provider is a text completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

const systemPrompt = `You are a customer success agent for a SaaS product.

Answer the customer's latest message directly and with empathy, in the first two sentences where possible.
A support ticket already exists for this conversation and its history is included; do not mention either.
Never discuss pricing: say the request is being passed to the account team.
Never share internal system details. If you do not know the answer, say so and offer to escalate.`

const sentimentInstruction = `IMPORTANT: start your response with "[SENTIMENT: X.X]" where X.X scores the customer's latest message from 0.0 (angry) through 0.5 (neutral) to 1.0 (happy). Then write your reply.`

var channelGuidance = map[domain.Channel]string{
	domain.ChannelGmail:    "Channel: email. Use a formal, detailed tone. The greeting and signature are added for you.",
	domain.ChannelWhatsApp: "Channel: WhatsApp. Be concise and conversational, under 300 characters.",
	domain.ChannelWebForm:  "Channel: web form. Be semi-formal and answer the question directly.",
}

// LLMResponder drives a Provider with the support prompt and parses its answer.
type LLMResponder struct {
	provider  Provider
	maxTokens int
	timeout   time.Duration
}

// NewLLMResponder wraps provider. A zero timeout leaves the caller's deadline in charge.
func NewLLMResponder(provider Provider, maxTokens int, timeout time.Duration) *LLMResponder {
	return &LLMResponder{provider: provider, maxTokens: maxTokens, timeout: timeout}
}

// Respond sends the ordered history and returns the parsed reply.
func (r *LLMResponder) Respond(ctx context.Context, ticket *domain.Ticket, history []domain.TicketMessage) (*Reply, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	raw, err := r.provider.Complete(ctx, BuildRequest(ticket, history, r.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.provider.Name(), err)
	}
	return ParseReply(raw)
}

// BuildRequest renders the prompt for ticket and its ordered history.
func BuildRequest(ticket *domain.Ticket, history []domain.TicketMessage, maxTokens int) Request {
	var prompt strings.Builder
	prompt.WriteString(systemPrompt)
	if guidance, ok := channelGuidance[ticket.SourceChannel]; ok {
		prompt.WriteString("\n\n")
		prompt.WriteString(guidance)
	}
	fmt.Fprintf(&prompt, "\n\nTicket subject: %s\nCategory: %s\n\n%s", ticket.Subject, ticket.Category, sentimentInstruction)

	messages := make([]Message, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, Message{Role: role, Content: m.Content})
	}
	return Request{SystemPrompt: prompt.String(), Messages: messages, MaxTokens: maxTokens}
}

var sentimentTag = regexp.MustCompile(`^\s*\[SENTIMENT:\s*([0-9]*\.?[0-9]+)\s*\]`)

// ParseReply splits a provider answer into the sentiment score and the reply text.
func ParseReply(raw string) (*Reply, error) {
	match := sentimentTag.FindStringSubmatchIndex(raw)
	if match == nil {
		return nil, fmt.Errorf("%w: missing sentiment tag", ErrMalformedReply)
	}
	score, err := strconv.ParseFloat(raw[match[2]:match[3]], 64)
	if err != nil || score < 0 || score > 1 {
		return nil, fmt.Errorf("%w: sentiment %q outside [0,1]", ErrMalformedReply, raw[match[2]:match[3]])
	}
	text := strings.TrimSpace(raw[match[1]:])
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply text", ErrMalformedReply)
	}
	return &Reply{Text: text, Sentiment: score}, nil
}
