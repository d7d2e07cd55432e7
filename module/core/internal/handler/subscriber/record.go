package subscriber

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
)

const (
	DefaultTopic   = "/devices/+/records"
	messageTimeout = 5 * time.Second
)

type recordService interface {
	Ingest(ctx context.Context, source string, records ...domain.Record) (int, error)
}

type recordMessage struct {
	IMEI      string  `json:"imei"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
	Angle     float64 `json:"angle"`
	Speed     float64 `json:"speed"`
}

type RecordSubscriber struct {
	client    mqtt.Client
	topic     string
	recordSvc recordService
	log       zerolog.Logger
}

func NewRecordSubscriber(client mqtt.Client, topic string, recordSvc recordService, log zerolog.Logger) *RecordSubscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	return &RecordSubscriber{
		client:    client,
		topic:     topic,
		recordSvc: recordSvc,
		log:       log.With().Str("component", "mqtt").Logger(),
	}
}

func (s *RecordSubscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	s.log.Info().Str("topic", s.topic).Msg("subscribed")
	return nil
}

func (s *RecordSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw recordMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid record message")
		return
	}

	rec := domain.Record{
		DeviceID: raw.IMEI,
		Location: orb.Point{raw.Longitude, raw.Latitude},
		Angle:    raw.Angle,
		Speed:    raw.Speed,
	}
	if rec.DeviceID == "" {
		rec.DeviceID = deviceFromTopic(msg.Topic())
	}
	if raw.Timestamp > 0 {
		rec.Time = time.Unix(raw.Timestamp, 0).UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	if _, err := s.recordSvc.Ingest(ctx, metrics.SourceMQTT, rec); err != nil {
		s.log.Warn().Err(err).
			Str("topic", msg.Topic()).
			Str("imei", rec.DeviceID).
			Msg("record rejected")
	}
}

// deviceFromTopic returns the segment following "devices" in topics shaped
// like /devices/<imei>/records.
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "devices" {
			return parts[i+1]
		}
	}
	return ""
}
