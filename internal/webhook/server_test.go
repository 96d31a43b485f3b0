package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/skype"
)

type recordingSink struct {
	events []*skype.Event
}

func (r *recordingSink) HandleEvent(event *skype.Event) {
	r.events = append(r.events, event)
}

func TestMessagesEndpointDispatchesEvent(t *testing.T) {
	sink := &recordingSink{}
	server := httptest.NewServer(New(sink, zap.NewNop()).Handler())
	defer server.Close()

	body := `{"message":{"text":"hi","address":{"id":"a1","channelId":"skype"},"user":{"id":"u1","name":"Bob"}}}`
	resp, err := http.Post(server.URL+"/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, sink.events, 1)
	require.NotNil(t, sink.events[0].Message)
	assert.Equal(t, "hi", sink.events[0].Message.Text)
	assert.Equal(t, "a1", sink.events[0].Message.Address.ID)
}

func TestMessagesEndpointRejectsBadJSON(t *testing.T) {
	sink := &recordingSink{}
	server := httptest.NewServer(New(sink, zap.NewNop()).Handler())
	defer server.Close()

	resp, err := http.Post(server.URL+"/messages", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, sink.events)
}

func TestMessagesEndpointRejectsGet(t *testing.T) {
	server := httptest.NewServer(New(&recordingSink{}, zap.NewNop()).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/messages")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	server := httptest.NewServer(New(&recordingSink{}, zap.NewNop()).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
