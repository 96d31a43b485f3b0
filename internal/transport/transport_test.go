package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/activity"
)

func noteActivity(content string) *activity.Activity {
	return &activity.Activity{
		Context:   activity.Context,
		Published: time.Now().UnixMilli(),
		Type:      activity.TypeCreate,
		Object:    &activity.Object{Type: activity.ObjectTypeNote, Content: content},
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	ws := NewWebSocketServer(zap.NewNop())
	require.NoError(t, ws.Start(context.Background()))

	server := httptest.NewServer(ws.HTTPHandler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for registration before publishing.
	require.Eventually(t, func() bool {
		return ws.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Publish(noteActivity("hi")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.NotNil(t, envelope.Activity)
	assert.Equal(t, "hi", envelope.Activity.Object.Content)
	assert.Positive(t, envelope.EmittedAt)

	conn.Close()
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ws.Stop(stopCtx))
}

func TestPollingSinceFilter(t *testing.T) {
	ps := NewPollingServer(zap.NewNop())

	require.NoError(t, ps.Publish(noteActivity("first")))
	require.NoError(t, ps.Publish(noteActivity("second")))
	assert.Equal(t, 2, ps.QueueSize())

	server := httptest.NewServer(ps.HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		Activities []*Envelope `json:"activities"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Len(t, payload.Activities, 2)

	// A since cursor past all entries yields an empty page.
	future := time.Now().Add(time.Hour).UnixMilli()
	resp2, err := http.Get(server.URL + "?since=" + strconv.FormatInt(future, 10))
	require.NoError(t, err)
	defer resp2.Body.Close()

	var payload2 struct {
		Activities []*Envelope `json:"activities"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&payload2))
	assert.Empty(t, payload2.Activities)
}

func TestPollingRejectsInvalidSince(t *testing.T) {
	server := httptest.NewServer(NewPollingServer(zap.NewNop()).HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL + "?since=tomorrow")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
