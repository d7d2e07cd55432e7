package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
	"github.com/nandanugg/geotrack/module/core/internal/repository/publisher"
)

type GeofenceService struct {
	places    database.PlaceRepository
	publisher publisher.GeofencePublisher
}

func NewGeofenceService(places database.PlaceRepository, pub publisher.GeofencePublisher) *GeofenceService {
	return &GeofenceService{places: places, publisher: pub}
}

// CheckAndAlert publishes one alert per registered place whose circle
// contains the record. A failed publish does not stop the remaining alerts.
func (s *GeofenceService) CheckAndAlert(ctx context.Context, rec *domain.Record) error {
	places, err := s.places.Containing(ctx, rec.Location)
	if err != nil {
		return domain.Internal("find containing places", err)
	}

	var errs []error
	for _, p := range places {
		alert := &domain.GeofenceAlert{
			DeviceID:   rec.DeviceID,
			InternalID: p.InternalID,
			Event:      domain.GeofenceInside,
			Location:   rec.Location,
			Time:       rec.Time,
		}
		if err := s.publisher.PublishAlert(ctx, alert); err != nil {
			metrics.RecordPublishFailure()
			errs = append(errs, fmt.Errorf("alert %s in %s: %w", rec.DeviceID, p.InternalID, err))
		}
	}
	return errors.Join(errs...)
}
