package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matcharena/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// envelope wraps an event payload for downstream consumers.
type envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// Notifier fans engine events out to NATS. Delivery is fire-and-forget:
// a publish failure is logged and never surfaces back into the
// operation that produced the event.
type Notifier struct {
	nc      *nats.Conn
	subject string
}

// Connect dials the NATS server and returns a notifier publishing on
// the given subject prefix.
func Connect(url, subjectPrefix string) (*Notifier, error) {
	opts := []nats.Option{
		nats.Name("arena"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("url", url).Info("Connected to NATS")
	return &Notifier{nc: nc, subject: subjectPrefix}, nil
}

// SubscribeAll registers the notifier on every engine event type.
func (n *Notifier) SubscribeAll(bus *events.Bus) {
	types := []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeUserCreated,
		events.EventTypeNewMatch,
		events.EventTypeMatchJoined,
		events.EventTypeResultSubmitted,
		events.EventTypeMatchSettled,
		events.EventTypeMatchDeleted,
		events.EventTypeDepositHandled,
		events.EventTypeWithdrawalHandled,
	}
	for _, t := range types {
		bus.Subscribe(t, n.handle)
	}
}

func (n *Notifier) handle(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal event payload")
		return
	}

	env := envelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "arena",
		Payload:       payload,
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal event envelope")
		return
	}

	subject := fmt.Sprintf("%s.%s", n.subject, event.Type())
	if err := n.nc.Publish(subject, data); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"subject":   subject,
			"error":     err,
		}).Error("Failed to publish event to NATS")
		return
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   env.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")
}

// Close drains the connection.
func (n *Notifier) Close() {
	if n.nc != nil {
		n.nc.Close()
	}
}
