package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*Publisher)(nil)

const (
	ExchangeName = "geotrack.events"
	PlaceQueue   = "place_events"
	AlertQueue   = "geofence_alerts"
)

// Bindings routes place events and geofence alerts to their own durable
// queues on the topic exchange.
var Bindings = []struct {
	Queue string
	Key   string
}{
	{PlaceQueue, "place.*"},
	{AlertQueue, "geofence.*"},
}

const breakerFailureThreshold = 5

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher writes JSON events to RabbitMQ. An amqp.Channel is not safe for
// concurrent publishing, so sends are serialized.
type Publisher struct {
	mu      sync.Mutex
	ch      channel
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := Declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return newPublisher(ch), nil
}

// Declare creates the exchange and queues and binds them. Both the server
// and the event listener call it; declarations are idempotent.
func Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	for _, b := range Bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.Key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.Queue, err)
		}
	}
	return nil
}

func newPublisher(ch channel) *Publisher {
	return &Publisher{
		ch: ch,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "rabbitmq-publish",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailureThreshold
			},
		}),
	}
}

// PlaceMessage is the wire form of a place lifecycle event. Coordinates are
// absent for place.deleted.
type PlaceMessage struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	InternalID string    `json:"internalid"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Radius     *int      `json:"radius,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AlertMessage struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	IMEI       string    `json:"imei"`
	InternalID string    `json:"internalid"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	Time       time.Time `json:"time"`
}

func (p *Publisher) PublishPlaceEvent(ctx context.Context, event *domain.PlaceEvent) error {
	msg := PlaceMessage{
		ID:         event.ID,
		Type:       string(event.Type),
		InternalID: event.InternalID,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if event.Place != nil {
		lon, lat, radius := event.Place.Longitude(), event.Place.Latitude(), event.Place.RadiusMeters
		msg.Longitude, msg.Latitude, msg.Radius = &lon, &lat, &radius
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal place event: %w", err)
	}
	return p.publish(ctx, msg.Type, msg.ID, msg.OccurredAt, body)
}

func (p *Publisher) PublishAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	msg := AlertMessage{
		ID:         uuid.NewString(),
		Type:       string(alert.Event),
		IMEI:       alert.DeviceID,
		InternalID: alert.InternalID,
		Longitude:  alert.Location.Lon(),
		Latitude:   alert.Location.Lat(),
		Time:       alert.Time.UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	return p.publish(ctx, msg.Type, msg.ID, msg.Time, body)
}

func (p *Publisher) publish(ctx context.Context, key, id string, ts time.Time, body []byte) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return struct{}{}, p.ch.PublishWithContext(ctx, ExchangeName, key, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Timestamp:    ts,
			Type:         key,
			Body:         body,
		})
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
