package activity

import (
	"fmt"
	"strings"
)

// tokenSegments is the segment count of a complete routing token.
const tokenSegments = 4

// MalformedContextError reports a routing token that cannot be decoded
// into the four segments required to reconstruct a reply address.
type MalformedContextError struct {
	Token string
}

func (e *MalformedContextError) Error() string {
	return fmt.Sprintf("malformed routing context %q: want address.id#conversation.id#channelId#bot.id", e.Token)
}

// RoutingToken encodes enough platform routing metadata to reconstruct
// a reply address without a cache hit. The wire format is
// <addressId>#<conversationId>#<channelId>#<botId> with no escaping.
type RoutingToken struct {
	AddressID      string
	ConversationID string
	ChannelID      string
	BotID          string
}

// Encode renders the token in its wire format.
func (t RoutingToken) Encode() string {
	return strings.Join([]string{t.AddressID, t.ConversationID, t.ChannelID, t.BotID}, "#")
}

// ParseRoutingToken decodes a wire token. It fails with
// MalformedContextError unless the token has exactly four non-empty
// segments in the fixed order.
func ParseRoutingToken(s string) (RoutingToken, error) {
	parts := strings.Split(s, "#")
	if len(parts) != tokenSegments {
		return RoutingToken{}, &MalformedContextError{Token: s}
	}
	for _, part := range parts {
		if part == "" {
			return RoutingToken{}, &MalformedContextError{Token: s}
		}
	}

	return RoutingToken{
		AddressID:      parts[0],
		ConversationID: parts[1],
		ChannelID:      parts[2],
		BotID:          parts[3],
	}, nil
}

// AddressID extracts the leading address segment without validating the
// rest of the token. Used to probe the address cache before falling
// back to full decoding.
func AddressID(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}
