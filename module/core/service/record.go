package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
)

// Alerter reacts to freshly stored records.
type Alerter interface {
	CheckAndAlert(ctx context.Context, rec *domain.Record) error
}

// RecordSink receives a copy of every stored batch.
type RecordSink interface {
	WriteRecords(ctx context.Context, records []domain.Record) error
}

type RecordService struct {
	repo    database.RecordRepository
	alerter Alerter
	sink    RecordSink
	log     zerolog.Logger
}

// NewRecordService wires record storage. alerter may be nil.
func NewRecordService(repo database.RecordRepository, alerter Alerter, log zerolog.Logger) *RecordService {
	return &RecordService{repo: repo, alerter: alerter, log: log}
}

// WithSink mirrors stored batches to sink. Sink failures are logged only.
func (s *RecordService) WithSink(sink RecordSink) *RecordService {
	s.sink = sink
	return s
}

// Ingest stores the batch and returns how many records were written. IDs are
// assigned and times normalized to UTC. One invalid record rejects the whole
// batch.
func (s *RecordService) Ingest(ctx context.Context, source string, records ...domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := make([]domain.Record, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.Time = rec.Time.UTC()
		if err := domain.ValidateRecord(&rec); err != nil {
			if len(records) == 1 {
				return 0, err
			}
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		batch[i] = rec
	}

	if err := s.repo.Append(ctx, batch...); err != nil {
		return 0, domain.Internal("append records", err)
	}
	metrics.RecordIngested(source, len(batch))

	if s.sink != nil {
		if err := s.sink.WriteRecords(ctx, batch); err != nil {
			s.log.Warn().Err(err).Int("records", len(batch)).Str("source", source).Msg("record mirror failed")
		}
	}

	if s.alerter != nil {
		for i := range batch {
			if err := s.alerter.CheckAndAlert(ctx, &batch[i]); err != nil {
				s.log.Warn().Err(err).
					Str("imei", batch[i].DeviceID).
					Str("source", source).
					Msg("geofence check failed")
			}
		}
	}
	return len(batch), nil
}
