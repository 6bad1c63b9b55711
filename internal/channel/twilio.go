package channel

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // Twilio signs webhooks with HMAC-SHA1
	"encoding/base64"
	"net/url"
	"sort"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TwilioWebhook normalizes form-encoded WhatsApp webhooks delivered by Twilio.
type TwilioWebhook struct {
	AuthToken string
}

func (TwilioWebhook) Channel() domain.Channel { return domain.ChannelWhatsApp }

func (TwilioWebhook) Threaded() bool { return true }

func (TwilioWebhook) Normalize(raw []byte) (*domain.Intake, error) {
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, apperrors.NewFieldError("body", "must be form encoded")
	}
	sub := WhatsAppSubmission{
		Name:    form.Get("ProfileName"),
		Phone:   form.Get("From"),
		Message: form.Get("Body"),
	}
	return WhatsApp{}.NormalizeSubmission(sub, form.Get("MessageSid"))
}

// Verify checks the X-Twilio-Signature header. Without an auth token every request passes.
func (t TwilioWebhook) Verify(fullURL string, raw []byte, signature string) bool {
	if t.AuthToken == "" {
		return true
	}
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return false
	}
	expected := t.Sign(fullURL, form)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the Twilio request signature for fullURL and params.
func (t TwilioWebhook) Sign(fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, key := range keys {
		for _, value := range params[key] {
			b.WriteString(key)
			b.WriteString(value)
		}
	}

	mac := hmac.New(sha1.New, []byte(t.AuthToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
