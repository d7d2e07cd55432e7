package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
	"github.com/nandanugg/geotrack/module/core/internal/repository/publisher"
)

type PlaceService struct {
	repo   database.PlaceRepository
	events publisher.PlaceEventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewPlaceService wires the place store and event sink. A nil events
// publisher disables lifecycle events.
func NewPlaceService(repo database.PlaceRepository, events publisher.PlaceEventPublisher, log zerolog.Logger) *PlaceService {
	if events == nil {
		events = publisher.Noop{}
	}
	return &PlaceService{repo: repo, events: events, log: log, now: time.Now}
}

// Create stores a new place. It fails with domain.ErrDuplicateKey when the
// id is already registered.
func (s *PlaceService) Create(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	if err := domain.ValidatePlace(place); err != nil {
		metrics.RecordPlaceOperation("create", err)
		return nil, err
	}

	err := s.repo.Create(ctx, place)
	metrics.RecordPlaceOperation("create", err)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, err
		}
		return nil, domain.Internal("create place", err)
	}

	s.publish(ctx, domain.PlaceCreated, place.InternalID, place)
	return place, nil
}

// Upsert inserts or fully replaces the place under its id and reports
// whether it was created.
func (s *PlaceService) Upsert(ctx context.Context, place *domain.Place) (*domain.Place, bool, error) {
	if err := domain.ValidatePlace(place); err != nil {
		metrics.RecordPlaceOperation("upsert", err)
		return nil, false, err
	}

	created, err := s.repo.Upsert(ctx, place)
	metrics.RecordPlaceOperation("upsert", err)
	if err != nil {
		return nil, false, domain.Internal("upsert place", err)
	}

	typ := domain.PlaceUpdated
	if created {
		typ = domain.PlaceCreated
	}
	s.publish(ctx, typ, place.InternalID, place)
	return place, created, nil
}

// Get returns found=false for an unknown id.
func (s *PlaceService) Get(ctx context.Context, internalID string) (*domain.Place, bool, error) {
	if err := domain.ValidatePlaceID(internalID); err != nil {
		metrics.RecordPlaceOperation("get", err)
		return nil, false, err
	}

	place, found, err := s.repo.Get(ctx, internalID)
	metrics.RecordPlaceOperation("get", err)
	if err != nil {
		return nil, false, domain.Internal("get place", err)
	}
	return place, found, nil
}

// Delete removes the place. Deleting an unknown id succeeds.
func (s *PlaceService) Delete(ctx context.Context, internalID string) error {
	if err := domain.ValidatePlaceID(internalID); err != nil {
		metrics.RecordPlaceOperation("delete", err)
		return err
	}

	deleted, err := s.repo.Delete(ctx, internalID)
	metrics.RecordPlaceOperation("delete", err)
	if err != nil {
		return domain.Internal("delete place", err)
	}
	if deleted {
		s.publish(ctx, domain.PlaceDeleted, internalID, nil)
	}
	return nil
}

// publish never fails the caller: the mutation is already committed.
func (s *PlaceService) publish(ctx context.Context, typ domain.PlaceEventType, id string, place *domain.Place) {
	event := &domain.PlaceEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		InternalID: id,
		Place:      place,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishPlaceEvent(ctx, event); err != nil {
		metrics.RecordPublishFailure()
		s.log.Warn().Err(err).
			Str("event", string(typ)).
			Str("internalid", id).
			Msg("failed to publish place event")
	}
}
