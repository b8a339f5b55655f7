// Package notify publishes record mutation events to an MQTT broker.
//
// Publishing is strictly best-effort: the publisher is disabled unless a
// broker is configured, and a broker that is down or slow never blocks or
// fails the mutation that triggered the event.
package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/logging"
	"github.com/recdeck/recdeck/internal/record"
)

// Package-level logger specific to the notify service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "notify.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "notify", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize notify file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "notify")
		closeLogger = func() error { return nil } // No-op closer
	}
}

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// Quiesce window handed to paho on disconnect, in milliseconds.
	disconnectQuiesce = 250
)

// Mutation actions carried in events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is the JSON payload published after a successful mutation. Record is
// omitted for deletes.
type Event struct {
	Action string         `json:"action"`
	ID     int            `json:"id"`
	Record *record.Record `json:"record,omitempty"`
}

// Publisher emits mutation events. The zero value is unusable; use New.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// New builds a publisher from settings. It returns nil when notifications
// are disabled; callers treat a nil publisher as a no-op.
func New(settings *conf.Settings) *Publisher {
	if !settings.Notify.Enabled || settings.Notify.Broker == "" {
		return nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(settings.Notify.Broker).
		SetClientID(settings.Notify.ClientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	if settings.Notify.Username != "" {
		opts.SetUsername(settings.Notify.Username)
		opts.SetPassword(settings.Notify.Password)
	}
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected to broker", "broker", settings.Notify.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("broker connection lost", "error", err)
	})

	return &Publisher{
		client: mqtt.NewClient(opts),
		topic:  settings.Notify.Topic,
	}
}

// NewWithClient builds a publisher over an existing MQTT client. Intended
// for tests and embedders that manage their own connection options.
func NewWithClient(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// Connect establishes the broker connection. A failure is logged and
// returned, but callers may keep the publisher around; auto-reconnect will
// keep trying in the background.
func (p *Publisher) Connect(ctx context.Context) error {
	if p == nil {
		return nil
	}
	token := p.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		err := errors.New(ctx.Err()).
			Category(errors.CategoryCancellation).
			Component("notify").
			Build()
		logger.Warn("connect abandoned", "error", err)
		return err
	case <-time.After(connectTimeout):
		err := errors.Newf("broker connect timed out").
			Category(errors.CategoryTimeout).
			Component("notify").
			Build()
		logger.Warn("connect failed", "error", err)
		return err
	}
	if err := token.Error(); err != nil {
		logger.Warn("connect failed", "error", err)
		return errors.New(err).
			Category(errors.CategoryIntegration).
			Component("notify").
			Build()
	}
	return nil
}

// Publish emits one event. Failures are logged only; the triggering mutation
// already succeeded and must not be affected.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("event marshal failed", "action", event.Action, "error", err)
		return
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		logger.Warn("publish abandoned", "action", event.Action, "id", event.ID, "error", ctx.Err())
		return
	case <-time.After(publishTimeout):
		logger.Warn("publish timed out", "action", event.Action, "id", event.ID, "topic", p.topic)
		return
	}
	if err := token.Error(); err != nil {
		logger.Warn("publish failed", "action", event.Action, "id", event.ID, "error", err)
		return
	}
	logger.Debug("event published", "action", event.Action, "id", event.ID, "topic", p.topic)
}

// Close disconnects from the broker and releases the service logger.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("notify: failed to close log file: %v", err)
		}
	}
}
