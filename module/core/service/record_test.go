package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
)

func TestIngest_AssignsIDsAndNormalizesTime(t *testing.T) {
	var stored []domain.Record
	repo := &mockRecordRepo{
		appendFn: func(_ context.Context, records ...domain.Record) error {
			stored = records
			return nil
		},
	}
	svc := NewRecordService(repo, nil, zerolog.Nop())

	cet := time.FixedZone("CET", 3600)
	n, err := svc.Ingest(context.Background(), metrics.SourceHTTP,
		domain.Record{DeviceID: "d1", Location: orb.Point{-3.7, 40.4}, Time: time.Date(2024, 1, 1, 11, 0, 0, 0, cet)},
		domain.Record{ID: "keep-me", DeviceID: "d1", Location: orb.Point{-3.7, 40.4}, Time: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(stored) != 2 {
		t.Fatalf("expected 2 stored, got n=%d stored=%d", n, len(stored))
	}
	if stored[0].ID == "" {
		t.Error("expected generated id")
	}
	if stored[1].ID != "keep-me" {
		t.Errorf("expected caller id preserved, got %s", stored[1].ID)
	}
	if stored[0].Time.Location() != time.UTC || stored[0].Time.Hour() != 10 {
		t.Errorf("expected 10:00 UTC, got %v", stored[0].Time)
	}
}

func TestIngest_InvalidRecordRejectsBatch(t *testing.T) {
	repo := &mockRecordRepo{
		appendFn: func(context.Context, ...domain.Record) error {
			t.Fatal("store must not be called")
			return nil
		},
	}
	svc := NewRecordService(repo, nil, zerolog.Nop())

	_, err := svc.Ingest(context.Background(), metrics.SourceHTTP,
		domain.Record{DeviceID: "d1", Location: orb.Point{0, 0}, Time: time.Now()},
		domain.Record{DeviceID: "d1", Location: orb.Point{0, 95}, Time: time.Now()},
	)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "latitude" {
		t.Fatalf("expected latitude ValidationError, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Error("expected ErrValidation")
	}
}

func TestIngest_MissingTime(t *testing.T) {
	svc := NewRecordService(&mockRecordRepo{}, nil, zerolog.Nop())

	_, err := svc.Ingest(context.Background(), metrics.SourceMQTT, domain.Record{DeviceID: "d1"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "time" {
		t.Fatalf("expected time ValidationError, got %v", err)
	}
}

func TestIngest_StoreErrorIsInternal(t *testing.T) {
	repo := &mockRecordRepo{
		appendFn: func(context.Context, ...domain.Record) error {
			return errors.New("disk full")
		},
	}
	svc := NewRecordService(repo, nil, zerolog.Nop())

	_, err := svc.Ingest(context.Background(), metrics.SourceTCP,
		domain.Record{DeviceID: "d1", Time: time.Now()})
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestIngest_AlertFailureIsNotFatal(t *testing.T) {
	repo := &mockRecordRepo{
		appendFn: func(context.Context, ...domain.Record) error { return nil },
	}
	alerter := &mockAlerter{
		checkFn: func(context.Context, *domain.Record) error {
			return errors.New("publish failed")
		},
	}
	svc := NewRecordService(repo, alerter, zerolog.Nop())

	n, err := svc.Ingest(context.Background(), metrics.SourceMQTT,
		domain.Record{DeviceID: "d1", Time: time.Now()},
		domain.Record{DeviceID: "d2", Time: time.Now()},
	)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 ingested, got n=%d err=%v", n, err)
	}
	if len(alerter.checked) != 2 {
		t.Errorf("expected 2 geofence checks, got %d", len(alerter.checked))
	}
}

func TestIngest_Empty(t *testing.T) {
	svc := NewRecordService(&mockRecordRepo{}, nil, zerolog.Nop())
	n, err := svc.Ingest(context.Background(), metrics.SourceHTTP)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
}

func TestIngest_MirrorsToSink(t *testing.T) {
	repo := &mockRecordRepo{
		appendFn: func(context.Context, ...domain.Record) error { return nil },
	}
	sink := &mockSink{
		writeFn: func(context.Context, []domain.Record) error { return errors.New("influx down") },
	}
	svc := NewRecordService(repo, nil, zerolog.Nop()).WithSink(sink)

	n, err := svc.Ingest(context.Background(), metrics.SourceHTTP,
		domain.Record{DeviceID: "d1", Time: time.Now()},
		domain.Record{DeviceID: "d1", Time: time.Now()},
	)
	if err != nil || n != 2 {
		t.Fatalf("sink failure must not fail ingestion, got n=%d err=%v", n, err)
	}
	if sink.written != 2 {
		t.Errorf("expected 2 mirrored records, got %d", sink.written)
	}
}

func TestIngest_SinkSkippedOnStoreError(t *testing.T) {
	repo := &mockRecordRepo{
		appendFn: func(context.Context, ...domain.Record) error { return errors.New("down") },
	}
	sink := &mockSink{}
	svc := NewRecordService(repo, nil, zerolog.Nop()).WithSink(sink)

	if _, err := svc.Ingest(context.Background(), metrics.SourceHTTP, domain.Record{DeviceID: "d1", Time: time.Now()}); err == nil {
		t.Fatal("expected error")
	}
	if sink.written != 0 {
		t.Errorf("expected nothing mirrored, got %d", sink.written)
	}
}
