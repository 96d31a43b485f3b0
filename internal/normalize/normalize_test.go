package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/activity"
	"github.com/broidkit/skype-bridge/internal/skype"
)

const serviceID = "service-1"

func textMessage() *skype.Message {
	return &skype.Message{
		Text: "hi",
		Address: &skype.Address{
			ID:           "a1",
			ChannelID:    "skype",
			Conversation: &skype.Conversation{ID: "c1"},
			Bot:          &skype.ChannelAccount{ID: "b1", Name: "bridge"},
		},
		User: &skype.ChannelAccount{ID: "u1", Name: "Bob"},
	}
}

func TestNormalizeEmptyMessageReturnsNil(t *testing.T) {
	n := New(serviceID, zap.NewNop())

	assert.Nil(t, n.Normalize(nil))
	assert.Nil(t, n.Normalize(&skype.Message{}))
	assert.Nil(t, n.Normalize(&skype.Message{Timestamp: "2024-01-02T03:04:05Z"}))
}

func TestNormalizeTextMessage(t *testing.T) {
	a := New(serviceID, zap.NewNop()).Normalize(textMessage())
	require.NotNil(t, a)

	assert.Equal(t, activity.Context, a.Context)
	assert.Equal(t, activity.TypeCreate, a.Type)
	assert.Equal(t, serviceID, a.Generator.ID)
	assert.Equal(t, activity.EntityTypeService, a.Generator.Type)
	assert.Equal(t, "skype", a.Generator.Name)

	assert.Equal(t, "u1", a.Actor.ID)
	assert.Equal(t, "Bob", a.Actor.Name)
	assert.Equal(t, activity.EntityTypePerson, a.Actor.Type)

	assert.Equal(t, "b1", a.Target.ID)
	assert.Equal(t, activity.EntityTypePerson, a.Target.Type)

	require.NotNil(t, a.Object)
	assert.Equal(t, activity.ObjectTypeNote, a.Object.Type)
	assert.Equal(t, "hi", a.Object.Content)
	assert.Equal(t, "a1", a.Object.ID)
	require.NotNil(t, a.Object.Context)
	assert.Equal(t, "address_id", a.Object.Context.Name)
	assert.Equal(t, "a1#c1#skype#b1", a.Object.Context.Content)
}

func TestNormalizeGroupConversationTarget(t *testing.T) {
	msg := textMessage()
	msg.Address.Conversation.IsGroup = true

	a := New(serviceID, zap.NewNop()).Normalize(msg)
	require.NotNil(t, a)
	assert.Equal(t, activity.EntityTypeGroup, a.Target.Type)
}

func TestNormalizeImagePrecedenceOverVideo(t *testing.T) {
	msg := textMessage()
	msg.Attachments = []skype.Attachment{
		{ContentType: "video/mp4", ContentURL: "https://cdn.example/clip.mp4", Name: "clip.mp4"},
		{ContentType: "image/png", ContentURL: "https://cdn.example/photo.png", Name: "photo.png"},
	}

	a := New(serviceID, zap.NewNop()).Normalize(msg)
	require.NotNil(t, a)
	assert.Equal(t, activity.ObjectTypeImage, a.Object.Type)
	assert.Equal(t, "https://cdn.example/photo.png", a.Object.URL)
	assert.Equal(t, "image/png", a.Object.MediaType)
	assert.Equal(t, "photo.png", a.Object.Name)
}

func TestNormalizeVideoAndOctetStream(t *testing.T) {
	msg := textMessage()
	msg.Attachments = []skype.Attachment{
		{ContentType: "application/octet-stream", ContentURL: "https://cdn.example/clip.mp4", Name: "clip.mp4"},
	}

	a := New(serviceID, zap.NewNop()).Normalize(msg)
	require.NotNil(t, a)
	assert.Equal(t, activity.ObjectTypeVideo, a.Object.Type)
	assert.Equal(t, "video/mp4", a.Object.MediaType)
}

func TestNormalizeLenientOnPartialAttachment(t *testing.T) {
	msg := textMessage()
	msg.Attachments = []skype.Attachment{{ContentType: "image/jpeg"}}

	a := New(serviceID, zap.NewNop()).Normalize(msg)
	require.NotNil(t, a)
	assert.Equal(t, activity.ObjectTypeImage, a.Object.Type)
	assert.Empty(t, a.Object.URL)
	assert.Empty(t, a.Object.Name)
	assert.Empty(t, a.Object.MediaType)
}

func TestNormalizeTimestampPolicy(t *testing.T) {
	n := New(serviceID, zap.NewNop())

	msg := textMessage()
	msg.Timestamp = "2024-05-06T07:08:09.123Z"
	a := n.Normalize(msg)
	require.NotNil(t, a)
	want := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC).UnixMilli()
	assert.Equal(t, want, a.Published)

	// Absent or unparsable timestamps fall back to the wall clock.
	for _, raw := range []string{"", "yesterday"} {
		msg := textMessage()
		msg.Timestamp = raw
		before := time.Now().UnixMilli()
		a := n.Normalize(msg)
		after := time.Now().UnixMilli()
		require.NotNil(t, a)
		assert.GreaterOrEqual(t, a.Published, before)
		assert.LessOrEqual(t, a.Published, after)
	}
}

func TestNormalizeGeneratesObjectIDWithoutAddress(t *testing.T) {
	msg := &skype.Message{
		Text: "hi",
		User: &skype.ChannelAccount{ID: "u1"},
	}

	a := New(serviceID, zap.NewNop()).Normalize(msg)
	require.NotNil(t, a)
	assert.NotEmpty(t, a.Object.ID)
	assert.Equal(t, "###", a.Object.Context.Content)
}
