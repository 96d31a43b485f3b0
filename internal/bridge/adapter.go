// Package bridge implements the adapter shell: it owns the cache and
// the platform session, feeds raw events through normalization, and
// exposes the outbound send path.
package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/activity"
	"github.com/broidkit/skype-bridge/internal/denormalize"
	"github.com/broidkit/skype-bridge/internal/normalize"
	"github.com/broidkit/skype-bridge/internal/schema"
	"github.com/broidkit/skype-bridge/internal/skype"
	"github.com/broidkit/skype-bridge/internal/store"
)

const defaultQueueSize = 100

// Config holds the adapter configuration.
type Config struct {
	// ServiceID identifies this adapter instance in generated
	// activities. A random identifier is assigned when empty.
	ServiceID string
	// Connector configures the platform session credentials and
	// transport behavior.
	Connector skype.ConnectorConfig
	// QueueSize bounds the output stream buffer. Events arriving
	// while the buffer is full are dropped with a warning.
	QueueSize int
}

// Adapter bridges platform events and normalized activities. It owns
// the store and platform session for the process lifetime.
type Adapter struct {
	serviceID    string
	config       Config
	store        *store.Store
	normalizer   *normalize.Normalizer
	denormalizer *denormalize.Denormalizer
	validator    schema.Validator
	session      skype.Session
	logger       *zap.Logger

	events    chan *activity.Activity
	closeOnce sync.Once

	mu        sync.RWMutex
	connected bool
}

// New creates an adapter. The session stays nil until Connect.
func New(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if cfg.ServiceID == "" {
		cfg.ServiceID = uuid.New().String()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	return &Adapter{
		serviceID:  cfg.ServiceID,
		config:     cfg,
		store:      store.New(),
		normalizer: normalize.New(cfg.ServiceID, logger),
		validator:  schema.New(),
		logger:     logger,
		events:     make(chan *activity.Activity, cfg.QueueSize),
	}
}

// ServiceID returns the service identifier of this adapter instance.
func (a *Adapter) ServiceID() string {
	return a.serviceID
}

// Connect establishes the platform session. It is idempotent and
// returns immediately when already connected. A missing credential
// pair fails the attempt with ErrCredentialsMissing.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	if a.config.Connector.AppID == "" || a.config.Connector.AppPassword == "" {
		return ErrCredentialsMissing
	}

	a.session = skype.NewConnector(a.config.Connector, a.logger)
	a.denormalizer = denormalize.New(a.serviceID, a.store, a.session, a.validator, a.logger)
	a.connected = true

	a.logger.Info("Adapter connected", zap.String("serviceId", a.serviceID))
	return nil
}

// Connected reports whether the platform session is established.
func (a *Adapter) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// Listen returns the push stream of normalized activities. Consumers
// subscribe once and receive objects until Close tears the stream down.
func (a *Adapter) Listen() <-chan *activity.Activity {
	return a.events
}

// HandleEvent processes one raw platform event to completion: cache
// the routing records, normalize, validate, emit. Failures are logged
// and never propagated so one bad message cannot drop the stream.
func (a *Adapter) HandleEvent(event *skype.Event) {
	if event == nil || event.Message == nil {
		return
	}
	msg := event.Message

	if msg.Address != nil {
		a.store.PutAddress(msg.Address.ID, *msg.Address)
	}
	if msg.User != nil {
		a.store.PutUser(msg.User.ID, *msg.User)
	}

	normalized := a.normalizer.Normalize(msg)
	if normalized == nil {
		a.logger.Debug("Dropping empty event")
		return
	}

	if err := a.validator.Validate(normalized, schema.OperationCreate); err != nil {
		a.logger.Error("Normalized event failed validation", zap.Error(err))
		return
	}

	select {
	case a.events <- normalized:
		a.logger.Debug("Event emitted",
			zap.String("objectId", normalized.Object.ID),
			zap.String("objectType", normalized.Object.Type))
	default:
		a.logger.Warn("Event queue full, dropping event",
			zap.String("objectId", normalized.Object.ID))
	}
}

// Send denormalizes the activity and dispatches it to the platform.
func (a *Adapter) Send(ctx context.Context, data *activity.Activity) (*denormalize.Receipt, error) {
	a.mu.RLock()
	d := a.denormalizer
	a.mu.RUnlock()

	if d == nil {
		return nil, ErrCredentialsMissing
	}
	return d.Deliver(ctx, data)
}

// Users returns the cached user records.
func (a *Adapter) Users() []skype.ChannelAccount {
	return a.store.Users()
}

// Addresses returns one cached routing address.
func (a *Adapter) Addresses(id string) (skype.Address, error) {
	address, ok := a.store.Address(id)
	if !ok {
		return skype.Address{}, &AddressNotFoundError{ID: id}
	}
	return address, nil
}

// Channels is not supported by the platform.
func (a *Adapter) Channels() error {
	return ErrNotSupported
}

// Disconnect is not supported: once connected, the session lives for
// the process lifetime.
func (a *Adapter) Disconnect() error {
	return ErrNotSupported
}

// Close tears down the output stream and releases the session.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.events)

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.session != nil {
			err = a.session.Close()
		}
		a.connected = false
	})
	return err
}
