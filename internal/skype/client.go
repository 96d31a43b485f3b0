package skype

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session is the platform collaborator responsible for authenticated
// message delivery.
type Session interface {
	// Send delivers an outgoing activity to the platform.
	Send(ctx context.Context, out *OutgoingActivity) error

	// Close releases the session's transport resources.
	Close() error
}

// TransportError reports a failed platform send. The bridge surfaces it
// to the caller without retrying beyond the connector's own attempts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("platform send failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConnectorConfig holds the connector session configuration.
type ConnectorConfig struct {
	// AppID is the Bot Framework application identifier.
	AppID string `json:"app_id" yaml:"app_id"`
	// AppPassword is the Bot Framework application secret.
	AppPassword string `json:"app_password" yaml:"app_password"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// MaxRetries is the maximum number of retry attempts per send.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DefaultConnectorConfig returns the default connector configuration.
func DefaultConnectorConfig() ConnectorConfig {
	return ConnectorConfig{
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}

// Connector is the HTTP connector session. It posts activities to the
// conversation endpoint of the service URL carried by the address.
type Connector struct {
	config     ConnectorConfig
	httpClient *http.Client
	logger     *zap.Logger
	mu         sync.RWMutex
	closed     bool
}

// NewConnector creates a connector session.
func NewConnector(config ConnectorConfig, logger *zap.Logger) *Connector {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Connector{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Send delivers the activity with bounded exponential-backoff retries.
// All failures are reported as TransportError.
func (c *Connector) Send(ctx context.Context, out *OutgoingActivity) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return &TransportError{Err: fmt.Errorf("session is closed")}
	}
	c.mu.RUnlock()

	if out == nil || out.Address == nil {
		return &TransportError{Err: fmt.Errorf("outgoing activity has no address")}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &TransportError{Err: ctx.Err()}
			}
			c.logger.Debug("Retrying platform send",
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
		}

		err := c.doSend(ctx, out)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return &TransportError{Err: fmt.Errorf("all retries exhausted: %w", lastErr)}
}

func (c *Connector) doSend(ctx context.Context, out *OutgoingActivity) error {
	body, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	endpoint, err := c.activityEndpoint(out.Address)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if out.Address.UseAuth && c.config.AppPassword != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AppPassword)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("connector error: %d - %s", resp.StatusCode, string(respBody))
	}

	c.logger.Debug("Activity delivered",
		zap.String("conversationId", conversationID(out.Address)),
		zap.Int("status", resp.StatusCode))

	return nil
}

func (c *Connector) activityEndpoint(address *Address) (string, error) {
	if address.ServiceURL == "" {
		return "", fmt.Errorf("address has no service URL")
	}
	convID := conversationID(address)
	if convID == "" {
		return "", fmt.Errorf("address has no conversation id")
	}

	base, err := url.Parse(address.ServiceURL)
	if err != nil {
		return "", fmt.Errorf("invalid service URL %q: %w", address.ServiceURL, err)
	}

	return base.JoinPath("v3", "conversations", convID, "activities").String(), nil
}

func conversationID(address *Address) string {
	if address.Conversation == nil {
		return ""
	}
	return address.Conversation.ID
}

// Close marks the session closed and drops idle connections.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.httpClient.CloseIdleConnections()
	return nil
}
