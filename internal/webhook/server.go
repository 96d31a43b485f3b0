// Package webhook receives raw platform events over HTTP and feeds
// them into the adapter. The listener is deliberately thin: it decodes
// bytes and dispatches; everything else lives behind the adapter.
package webhook

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/skype"
)

// EventSink consumes decoded platform events.
type EventSink interface {
	HandleEvent(event *skype.Event)
}

// Server exposes the inbound webhook endpoints.
type Server struct {
	sink   EventSink
	logger *zap.Logger
}

// New creates a webhook server dispatching into the sink.
func New(sink EventSink, logger *zap.Logger) *Server {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Server{
		sink:   sink,
		logger: logger,
	}
}

// Handler returns the webhook HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// handleMessages accepts one platform event per request. Processing is
// asynchronous from the platform's point of view: the event is accepted
// as soon as it decodes, and normalization failures never surface here.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event skype.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.logger.Warn("Failed to decode webhook payload", zap.Error(err))
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s.sink.HandleEvent(&event)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
