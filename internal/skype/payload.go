package skype

// Card action types understood by the platform.
const (
	ActionTypeOpenURL = "openUrl"
	ActionTypeCall    = "call"
	ActionTypeIMBack  = "imBack"
)

// HeroCardContentType is the attachment content type for hero cards.
const HeroCardContentType = "application/vnd.microsoft.card.hero"

// TextFormatMarkdown is the text format applied to outgoing activities.
const TextFormatMarkdown = "markdown"

// CardAction is a button on a card.
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
}

// CardImage is an image slot on a hero card.
type CardImage struct {
	URL string `json:"url"`
}

// HeroCard is the platform's titled card with text, images, and buttons.
type HeroCard struct {
	Title   string       `json:"title,omitempty"`
	Text    string       `json:"text,omitempty"`
	Images  []CardImage  `json:"images,omitempty"`
	Buttons []CardAction `json:"buttons,omitempty"`
}

// OutgoingAttachment is the attachment union on an outgoing activity:
// either a typed card (Content set) or a raw media reference
// (ContentURL set).
type OutgoingAttachment struct {
	ContentType string    `json:"contentType"`
	ContentURL  string    `json:"contentUrl,omitempty"`
	Content     *HeroCard `json:"content,omitempty"`
}

// OutgoingActivity is the platform-native send payload.
type OutgoingActivity struct {
	Type        string               `json:"type"`
	TextFormat  string               `json:"textFormat,omitempty"`
	Text        string               `json:"text,omitempty"`
	Address     *Address             `json:"address,omitempty"`
	Attachments []OutgoingAttachment `json:"attachments,omitempty"`
}

// NewOutgoingActivity creates a markdown-formatted message activity
// addressed to the given routing record.
func NewOutgoingActivity(address *Address) *OutgoingActivity {
	return &OutgoingActivity{
		Type:       "message",
		TextFormat: TextFormatMarkdown,
		Address:    address,
	}
}

// HeroCardAttachment wraps a hero card as an outgoing attachment.
func HeroCardAttachment(card *HeroCard) OutgoingAttachment {
	return OutgoingAttachment{
		ContentType: HeroCardContentType,
		Content:     card,
	}
}

// MediaAttachment wraps a raw media URL as an outgoing attachment.
func MediaAttachment(url string) OutgoingAttachment {
	return OutgoingAttachment{
		ContentType: MediaTypeByName(url),
		ContentURL:  url,
	}
}
