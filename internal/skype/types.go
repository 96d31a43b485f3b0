// Package skype defines Bot Framework wire types and the connector
// session used to deliver outbound activities.
package skype

import (
	"mime"
	"path"
	"strings"
)

// ChannelName identifies the platform in generator metadata and logs.
const ChannelName = "skype"

// ChannelAccount is a user or bot identity on the platform.
type ChannelAccount struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Conversation identifies the conversation an event belongs to.
type Conversation struct {
	ID      string `json:"id,omitempty"`
	IsGroup bool   `json:"isGroup,omitempty"`
}

// Address is the full routing record for a conversation. The webhook
// receives one per inbound message; the bridge caches it and can
// resynthesize it from a routing token when the cache misses.
type Address struct {
	ID           string          `json:"id,omitempty"`
	ChannelID    string          `json:"channelId,omitempty"`
	ServiceURL   string          `json:"serviceUrl,omitempty"`
	UseAuth      bool            `json:"useAuth,omitempty"`
	Conversation *Conversation   `json:"conversation,omitempty"`
	Bot          *ChannelAccount `json:"bot,omitempty"`
	User         *ChannelAccount `json:"user,omitempty"`
}

// Attachment is an inbound file attachment.
type Attachment struct {
	ContentType string `json:"contentType,omitempty"`
	ContentURL  string `json:"contentUrl,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Message is the platform message body.
type Message struct {
	Type        string          `json:"type,omitempty"`
	Text        string          `json:"text,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Address     *Address        `json:"address,omitempty"`
	User        *ChannelAccount `json:"user,omitempty"`
}

// Event is the raw inbound event envelope dispatched by the platform SDK.
type Event struct {
	Message *Message `json:"message,omitempty"`
}

// IsImage reports whether the attachment carries image content.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image")
}

// IsVideo reports whether the attachment carries video content. The
// platform labels some video uploads with the generic octet-stream type.
func (a Attachment) IsVideo() bool {
	return strings.HasPrefix(a.ContentType, "video") ||
		a.ContentType == "application/octet-stream"
}

// mediaTypes covers the media extensions the platform exchanges. The
// stdlib mime table omits most of them unless the host ships a
// mime.types database.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
}

// MediaTypeByName resolves a media type from a file name extension.
// Unknown extensions yield an empty string.
func MediaTypeByName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if mediaType, ok := mediaTypes[ext]; ok {
		return mediaType
	}
	mediaType := mime.TypeByExtension(ext)
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return mediaType
}
