// Package activity defines the normalized ActivityStreams message model.
// Every IM platform event is translated into this vendor-neutral format
// before it crosses the bridge boundary.
package activity

// Context is the fixed protocol identifier carried by every activity.
const Context = "https://www.w3.org/ns/activitystreams"

// TypeCreate is the activity type for all inbound normalizations.
const TypeCreate = "Create"

// Object types supported by the bridge.
const (
	ObjectTypeNote  = "Note"
	ObjectTypeImage = "Image"
	ObjectTypeVideo = "Video"
)

// Entity types used by actor, target, and generator.
const (
	EntityTypePerson  = "Person"
	EntityTypeGroup   = "Group"
	EntityTypeService = "Service"
)

// AttachmentTypeButton marks an outbound button descriptor.
const AttachmentTypeButton = "Button"

// Button media types discriminating the button's physical action.
const (
	ButtonMediaTypeWebURL = "text/html"
	ButtonMediaTypeCall   = "audio/telephone-event"
)

// Entity identifies a participant in an activity (person, group, or
// the bridge service itself).
type Entity struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// ObjectContext carries the composite routing token. Its content is the
// only place full platform routing identity crosses the bridge boundary.
type ObjectContext struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Attachment is a button descriptor attached to an outbound object.
type Attachment struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Content   string `json:"content,omitempty"`
	URL       string `json:"url,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

// Object is the activity payload.
type Object struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"`
	Content    string         `json:"content,omitempty"`
	URL        string         `json:"url,omitempty"`
	MediaType  string         `json:"mediaType,omitempty"`
	Name       string         `json:"name,omitempty"`
	Context    *ObjectContext `json:"context,omitempty"`
	Attachment []Attachment   `json:"attachment,omitempty"`
}

// Activity is the canonical message envelope exchanged across the
// bridge boundary. Published is an epoch timestamp in milliseconds.
type Activity struct {
	Context   string  `json:"@context"`
	Published int64   `json:"published"`
	Type      string  `json:"type"`
	Generator *Entity `json:"generator,omitempty"`
	Actor     *Entity `json:"actor,omitempty"`
	Target    *Entity `json:"target,omitempty"`
	To        *Entity `json:"to,omitempty"`
	Object    *Object `json:"object,omitempty"`
}

// Buttons returns the object's attachments of type Button, in order.
func (a *Activity) Buttons() []Attachment {
	if a.Object == nil {
		return nil
	}

	var buttons []Attachment
	for _, att := range a.Object.Attachment {
		if att.Type == AttachmentTypeButton {
			buttons = append(buttons, att)
		}
	}
	return buttons
}
