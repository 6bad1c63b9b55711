package responder

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider answers from canned replies and a keyword sentiment heuristic.
// It needs no network access and is the default provider.
type MockProvider struct{}

func (MockProvider) Name() string { return "mock" }

var (
	negativeWords = []string{"angry", "awful", "furious", "hate", "horrible", "ridiculous", "terrible", "unacceptable", "useless", "worst"}
	positiveWords = []string{"amazing", "awesome", "great", "love", "thank", "thanks", "wonderful"}
)

func (MockProvider) Complete(_ context.Context, req Request) (string, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = strings.ToLower(req.Messages[i].Content)
			break
		}
	}
	return fmt.Sprintf("[SENTIMENT: %.1f] %s", mockSentiment(last), mockAnswer(last)), nil
}

func mockSentiment(text string) float64 {
	switch {
	case containsAny(text, negativeWords):
		return 0.2
	case containsAny(text, positiveWords):
		return 0.8
	}
	return 0.5
}

func mockAnswer(text string) string {
	switch {
	case containsAny(text, []string{"reset", "password"}):
		return "I have started a password reset for you. Please check your email for a secure link."
	case containsAny(text, []string{"pricing", "cost", "price"}):
		return "Pricing questions are handled by our account team. A specialist will contact you with a quote."
	case containsAny(text, []string{"team", "member", "invite"}):
		return "To add team members, open the Team tab in your dashboard and click Invite."
	}
	return "Thank you for contacting us. Our technical team is reviewing your request and will follow up shortly."
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
