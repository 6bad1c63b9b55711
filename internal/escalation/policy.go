package escalation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// DefaultSentimentThreshold is the score below which a customer message escalates.
const DefaultSentimentThreshold = 0.3

// Decision is the outcome of evaluating a ticket.
type Decision struct {
	Escalate bool
	Reason   string
}

// Policy decides whether a ticket needs human attention. It holds no per-ticket state.
type Policy struct {
	threshold float64
	keywords  []string
	matcher   *regexp.Regexp
}

// NewPolicy compiles a policy for the given threshold and keyword set.
func NewPolicy(threshold float64, keywords []string) *Policy {
	p := &Policy{threshold: threshold}
	alternatives := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.Join(strings.Fields(kw), " "))
		if kw == "" {
			continue
		}
		p.keywords = append(p.keywords, kw)
		alternatives = append(alternatives, strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s+`))
	}
	if len(alternatives) > 0 {
		// Word boundaries are spelled out so keywords may start or end with punctuation.
		p.matcher = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(` + strings.Join(alternatives, "|") + `)(?:$|[^\p{L}\p{N}_])`)
	}
	return p
}

// Threshold returns the sentiment cut-off.
func (p *Policy) Threshold() float64 { return p.threshold }

// Keywords returns the normalized keyword set.
func (p *Policy) Keywords() []string { return append([]string(nil), p.keywords...) }

// Evaluate inspects the most recent customer message of t.
func (p *Policy) Evaluate(t *domain.Ticket) Decision {
	return p.EvaluateMessage(t.LastCustomerMessage())
}

// EvaluateMessage checks a single customer message against the threshold and keywords.
func (p *Policy) EvaluateMessage(msg *domain.TicketMessage) Decision {
	if msg == nil || msg.Role != domain.RoleCustomer {
		return Decision{}
	}
	if msg.SentimentScore != nil && *msg.SentimentScore < p.threshold {
		return Decision{
			Escalate: true,
			Reason:   fmt.Sprintf("sentiment %.2f below %.2f", *msg.SentimentScore, p.threshold),
		}
	}
	if kw, ok := p.MatchKeyword(msg.Content); ok {
		return Decision{Escalate: true, Reason: fmt.Sprintf("keyword %q", kw)}
	}
	return Decision{}
}

// MatchKeyword returns the first configured keyword found in text as a whole word.
func (p *Policy) MatchKeyword(text string) (string, bool) {
	if p.matcher == nil {
		return "", false
	}
	m := p.matcher.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(strings.Join(strings.Fields(m[1]), " ")), true
}
