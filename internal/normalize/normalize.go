// Package normalize converts raw platform messages into normalized
// activities. Normalization is lenient: partial events degrade to
// partial output rather than failing, and empty events yield nil.
package normalize

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/activity"
	"github.com/broidkit/skype-bridge/internal/skype"
)

// Normalizer converts raw platform messages into activities attributed
// to one service identifier. It holds no state across calls.
type Normalizer struct {
	serviceID string
	logger    *zap.Logger
}

// New creates a normalizer for the given service identifier.
func New(serviceID string, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Normalizer{
		serviceID: serviceID,
		logger:    logger,
	}
}

// Normalize converts a raw platform message into a normalized activity.
// It returns nil for absent or structurally empty messages; the caller
// must not emit in that case. Normalize never fails.
func (n *Normalizer) Normalize(msg *skype.Message) *activity.Activity {
	if isEmpty(msg) {
		return nil
	}

	a := &activity.Activity{
		Context:   activity.Context,
		Published: n.publishedAt(msg),
		Type:      activity.TypeCreate,
		Generator: &activity.Entity{
			ID:   n.serviceID,
			Type: activity.EntityTypeService,
			Name: skype.ChannelName,
		},
		Actor:  actorEntity(msg.User),
		Target: targetEntity(msg.Address),
		Object: n.objectPayload(msg),
	}

	return a
}

// publishedAt resolves the activity timestamp in epoch milliseconds.
// A platform timestamp is parsed as RFC3339; absent or unparsable
// timestamps fall back to the current wall clock.
func (n *Normalizer) publishedAt(msg *skype.Message) int64 {
	if msg.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, msg.Timestamp); err == nil {
			return ts.UnixMilli()
		}
		n.logger.Debug("Unparsable event timestamp, using wall clock",
			zap.String("timestamp", msg.Timestamp))
	}

	return time.Now().UnixMilli()
}

func (n *Normalizer) objectPayload(msg *skype.Message) *activity.Object {
	obj := &activity.Object{
		Type:    activity.ObjectTypeNote,
		ID:      objectID(msg.Address),
		Context: routingContext(msg.Address),
	}

	if msg.Text != "" {
		obj.Content = msg.Text
	}

	// Image takes precedence when both kinds are present.
	if att, ok := firstAttachment(msg.Attachments, skype.Attachment.IsImage); ok {
		applyMedia(obj, activity.ObjectTypeImage, att)
	} else if att, ok := firstAttachment(msg.Attachments, skype.Attachment.IsVideo); ok {
		applyMedia(obj, activity.ObjectTypeVideo, att)
	}

	return obj
}

func firstAttachment(attachments []skype.Attachment, match func(skype.Attachment) bool) (skype.Attachment, bool) {
	for _, att := range attachments {
		if match(att) {
			return att, true
		}
	}
	return skype.Attachment{}, false
}

// applyMedia promotes the object to a media type. Missing attachment
// fields propagate as empty output fields rather than failing the call.
func applyMedia(obj *activity.Object, objectType string, att skype.Attachment) {
	obj.Type = objectType
	obj.URL = att.ContentURL
	obj.MediaType = skype.MediaTypeByName(att.Name)
	obj.Name = att.Name
}

func objectID(address *skype.Address) string {
	if address != nil && address.ID != "" {
		return address.ID
	}
	return uuid.New().String()
}

// routingContext encodes the composite routing token. Inbound encoding
// is lenient about empty segments; strict validation happens on the
// outbound path.
func routingContext(address *skype.Address) *activity.ObjectContext {
	token := activity.RoutingToken{}
	if address != nil {
		token.AddressID = address.ID
		token.ChannelID = address.ChannelID
		if address.Conversation != nil {
			token.ConversationID = address.Conversation.ID
		}
		if address.Bot != nil {
			token.BotID = address.Bot.ID
		}
	}

	return &activity.ObjectContext{
		Type:    "Object",
		Name:    "address_id",
		Content: token.Encode(),
	}
}

func actorEntity(user *skype.ChannelAccount) *activity.Entity {
	entity := &activity.Entity{Type: activity.EntityTypePerson}
	if user != nil {
		entity.ID = user.ID
		entity.Name = user.Name
	}
	return entity
}

func targetEntity(address *skype.Address) *activity.Entity {
	entity := &activity.Entity{Type: activity.EntityTypePerson}
	if address == nil {
		return entity
	}

	if address.Bot != nil {
		entity.ID = address.Bot.ID
		entity.Name = address.Bot.Name
	}
	if address.Conversation != nil && address.Conversation.IsGroup {
		entity.Type = activity.EntityTypeGroup
	}
	return entity
}

func isEmpty(msg *skype.Message) bool {
	if msg == nil {
		return true
	}
	return msg.Text == "" &&
		len(msg.Attachments) == 0 &&
		msg.Address == nil &&
		msg.User == nil
}
