package service

import (
	"context"
	"sync"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
)

type mockPlaceRepo struct {
	createFn     func(ctx context.Context, place *domain.Place) error
	upsertFn     func(ctx context.Context, place *domain.Place) (bool, error)
	getFn        func(ctx context.Context, id string) (*domain.Place, bool, error)
	deleteFn     func(ctx context.Context, id string) (bool, error)
	containingFn func(ctx context.Context, p orb.Point) ([]domain.Place, error)
}

func (m *mockPlaceRepo) Create(ctx context.Context, place *domain.Place) error {
	return m.createFn(ctx, place)
}

func (m *mockPlaceRepo) Upsert(ctx context.Context, place *domain.Place) (bool, error) {
	return m.upsertFn(ctx, place)
}

func (m *mockPlaceRepo) Get(ctx context.Context, id string) (*domain.Place, bool, error) {
	return m.getFn(ctx, id)
}

func (m *mockPlaceRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}

func (m *mockPlaceRepo) Containing(ctx context.Context, p orb.Point) ([]domain.Place, error) {
	return m.containingFn(ctx, p)
}

type mockRecordRepo struct {
	appendFn func(ctx context.Context, records ...domain.Record) error
	queryFn  func(ctx context.Context, q database.RecordQuery) ([]domain.Record, error)
}

func (m *mockRecordRepo) Append(ctx context.Context, records ...domain.Record) error {
	return m.appendFn(ctx, records...)
}

func (m *mockRecordRepo) QueryWindowCircle(ctx context.Context, q database.RecordQuery) ([]domain.Record, error) {
	return m.queryFn(ctx, q)
}

type mockPublisher struct {
	mu             sync.Mutex
	placeEventFn   func(ctx context.Context, event *domain.PlaceEvent) error
	publishAlertFn func(ctx context.Context, alert *domain.GeofenceAlert) error
	events         []*domain.PlaceEvent
	alerts         []*domain.GeofenceAlert
}

func (m *mockPublisher) PublishPlaceEvent(ctx context.Context, event *domain.PlaceEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.placeEventFn != nil {
		return m.placeEventFn(ctx, event)
	}
	return nil
}

func (m *mockPublisher) PublishAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	m.mu.Lock()
	m.alerts = append(m.alerts, alert)
	m.mu.Unlock()
	if m.publishAlertFn != nil {
		return m.publishAlertFn(ctx, alert)
	}
	return nil
}

type mockAlerter struct {
	checkFn func(ctx context.Context, rec *domain.Record) error
	checked []string
}

func (m *mockAlerter) CheckAndAlert(ctx context.Context, rec *domain.Record) error {
	m.checked = append(m.checked, rec.ID)
	if m.checkFn != nil {
		return m.checkFn(ctx, rec)
	}
	return nil
}

type mockSink struct {
	writeFn func(ctx context.Context, records []domain.Record) error
	written int
}

func (m *mockSink) WriteRecords(ctx context.Context, records []domain.Record) error {
	m.written += len(records)
	if m.writeFn != nil {
		return m.writeFn(ctx, records)
	}
	return nil
}
