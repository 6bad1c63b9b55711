package domain

// Channel identifies the inbound contact channel a ticket originated from.
type Channel string

const (
	ChannelWebForm  Channel = "web_form"
	ChannelGmail    Channel = "gmail"
	ChannelWhatsApp Channel = "whatsapp"
)

// Channels lists every supported channel in display order.
var Channels = []Channel{ChannelWebForm, ChannelGmail, ChannelWhatsApp}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	for _, candidate := range Channels {
		if candidate == c {
			return true
		}
	}
	return false
}
