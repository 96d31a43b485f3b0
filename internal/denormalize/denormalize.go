// Package denormalize converts normalized activities into platform
// send payloads and triggers their delivery.
package denormalize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/activity"
	"github.com/broidkit/skype-bridge/internal/schema"
	"github.com/broidkit/skype-bridge/internal/skype"
	"github.com/broidkit/skype-bridge/internal/store"
)

// StatusSent is the acknowledgment status for a delivered activity.
const StatusSent = "sent"

// UnsupportedContentTypeError reports an object type the bridge cannot
// map onto a platform payload.
type UnsupportedContentTypeError struct {
	Type string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported object type %q: only Note, Image, Video are supported", e.Type)
}

// Receipt acknowledges a successful delivery.
type Receipt struct {
	Status    string `json:"status"`
	ServiceID string `json:"serviceId"`
}

// Denormalizer maps normalized activities into platform payloads.
// It borrows the store and session per call and holds no per-call state.
type Denormalizer struct {
	serviceID string
	store     *store.Store
	session   skype.Session
	validator schema.Validator
	logger    *zap.Logger
}

// New creates a denormalizer.
func New(serviceID string, st *store.Store, session skype.Session, validator schema.Validator, logger *zap.Logger) *Denormalizer {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Denormalizer{
		serviceID: serviceID,
		store:     st,
		session:   session,
		validator: validator,
		logger:    logger,
	}
}

// Deliver validates the activity for the send operation, shapes the
// platform payload, and dispatches it through the session. Failures
// propagate; none are swallowed.
func (d *Denormalizer) Deliver(ctx context.Context, a *activity.Activity) (*Receipt, error) {
	if err := d.validator.Validate(a, schema.OperationSend); err != nil {
		return nil, err
	}

	address, err := d.resolveAddress(a)
	if err != nil {
		return nil, err
	}

	out, err := d.buildOutgoing(a, address)
	if err != nil {
		return nil, err
	}

	if err := d.session.Send(ctx, out); err != nil {
		return nil, err
	}

	d.logger.Debug("Activity delivered",
		zap.String("objectType", a.Object.Type),
		zap.String("addressId", address.ID))

	return &Receipt{Status: StatusSent, ServiceID: d.serviceID}, nil
}

// resolveAddress reconstructs a platform routing record. A cached
// address for the token's leading segment wins; otherwise the token
// must decode completely and the address is synthesized from it.
func (d *Denormalizer) resolveAddress(a *activity.Activity) (*skype.Address, error) {
	var raw string
	if a.Object.Context != nil {
		raw = a.Object.Context.Content
	}

	if cached, ok := d.store.Address(activity.AddressID(raw)); ok {
		return &cached, nil
	}

	token, err := activity.ParseRoutingToken(raw)
	if err != nil {
		return nil, err
	}

	return &skype.Address{
		ID:         token.AddressID,
		ChannelID:  token.ChannelID,
		ServiceURL: fmt.Sprintf("https://%s.botframework.com", token.ChannelID),
		UseAuth:    true,
		Conversation: &skype.Conversation{
			ID: token.ConversationID,
		},
		Bot:  &skype.ChannelAccount{ID: token.BotID},
		User: &skype.ChannelAccount{ID: a.To.ID},
	}, nil
}

// mapButtons converts Button attachments into platform card actions.
// Buttons with an unrecognized media type are dropped, not an error.
func mapButtons(buttons []activity.Attachment) []skype.CardAction {
	var actions []skype.CardAction
	for _, button := range buttons {
		title := button.Name
		if title == "" {
			title = button.Content
		}

		switch button.MediaType {
		case "":
			actions = append(actions, skype.CardAction{
				Type:  skype.ActionTypeIMBack,
				Title: title,
				Value: button.URL,
			})
		case activity.ButtonMediaTypeWebURL:
			actions = append(actions, skype.CardAction{
				Type:  skype.ActionTypeOpenURL,
				Title: title,
				Value: button.URL,
			})
		case activity.ButtonMediaTypeCall:
			actions = append(actions, skype.CardAction{
				Type:  skype.ActionTypeCall,
				Title: title,
				Value: "tel:" + button.URL,
			})
		}
	}
	return actions
}

func (d *Denormalizer) buildOutgoing(a *activity.Activity, address *skype.Address) (*skype.OutgoingActivity, error) {
	obj := a.Object
	out := skype.NewOutgoingActivity(address)
	actions := mapButtons(a.Buttons())

	title := obj.Name
	if title == "" {
		title = obj.Content
	}

	switch obj.Type {
	case activity.ObjectTypeNote:
		if len(actions) == 0 {
			out.Text = obj.Content
			return out, nil
		}
		out.Attachments = []skype.OutgoingAttachment{
			skype.HeroCardAttachment(&skype.HeroCard{
				Title:   title,
				Text:    obj.Content,
				Buttons: actions,
			}),
		}
		return out, nil

	case activity.ObjectTypeImage:
		out.Attachments = []skype.OutgoingAttachment{
			skype.HeroCardAttachment(&skype.HeroCard{
				Title:   title,
				Text:    obj.Content,
				Images:  []skype.CardImage{{URL: obj.URL}},
				Buttons: actions,
			}),
		}
		return out, nil

	case activity.ObjectTypeVideo:
		// Raw media plus a card fallback; the platform has no video card.
		out.Attachments = []skype.OutgoingAttachment{
			skype.MediaAttachment(obj.URL),
			skype.HeroCardAttachment(&skype.HeroCard{
				Title:   title,
				Text:    obj.Content,
				Buttons: actions,
			}),
		}
		return out, nil

	default:
		return nil, &UnsupportedContentTypeError{Type: obj.Type}
	}
}
