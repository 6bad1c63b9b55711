package responder

import (
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// WhatsAppMaxRunes caps chat replies before the ellipsis.
const WhatsAppMaxRunes = 250

const signature = "The Support Team"

// FormatReply applies channel conventions to reply text.
func FormatReply(channel domain.Channel, text string) string {
	text = strings.TrimSpace(text)
	switch channel {
	case domain.ChannelGmail:
		return "Hi,\n\n" + text + "\n\nBest regards,\n" + signature
	case domain.ChannelWhatsApp:
		runes := []rune(text)
		if len(runes) > WhatsAppMaxRunes {
			return string(runes[:WhatsAppMaxRunes]) + "..."
		}
		return text
	case domain.ChannelWebForm:
		return text + "\n\n--\n" + signature
	}
	return text
}
