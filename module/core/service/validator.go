package service

import (
	"context"
	"time"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/geo"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
)

const DefaultResultLimit = 10

type ValidateRequest struct {
	PlaceID       string
	DeviceID      string // optional; empty matches every device
	ReferenceTime time.Time
}

// ValidatorService answers whether records fell inside a place during the
// day starting at the reference time.
type ValidatorService struct {
	places  database.PlaceRepository
	records database.RecordRepository
	limit   int
}

// NewValidatorService caps results at limit records; 0 means unlimited.
func NewValidatorService(places database.PlaceRepository, records database.RecordRepository, limit int) *ValidatorService {
	if limit < 0 {
		limit = DefaultResultLimit
	}
	return &ValidatorService{places: places, records: records, limit: limit}
}

// Validate returns an unvalidated result, not an error, when the place does
// not exist. Matching records come back in ascending time order.
func (s *ValidatorService) Validate(ctx context.Context, req ValidateRequest) (*domain.ValidationResult, error) {
	if req.ReferenceTime.IsZero() {
		return nil, &domain.ValidationError{Field: "time", Reason: "required"}
	}

	if domain.ValidatePlaceID(req.PlaceID) != nil {
		metrics.RecordValidation(metrics.OutcomeUnvalidated)
		return domain.Unvalidated(domain.ReasonUndefinedLocation), nil
	}

	place, found, err := s.places.Get(ctx, req.PlaceID)
	if err != nil {
		metrics.RecordValidation(metrics.OutcomeError)
		return nil, domain.Internal("resolve place", err)
	}
	if !found {
		metrics.RecordValidation(metrics.OutcomeUnvalidated)
		return domain.Unvalidated(domain.ReasonUndefinedLocation), nil
	}

	window := domain.DayWindow(req.ReferenceTime)
	records, err := s.records.QueryWindowCircle(ctx, database.RecordQuery{
		Start:    window.Start,
		End:      window.End,
		Circle:   geo.NewCircle(place.Center, place.RadiusMeters),
		DeviceID: req.DeviceID,
		Order:    domain.SortAscending,
		Limit:    s.limit,
	})
	if err != nil {
		metrics.RecordValidation(metrics.OutcomeError)
		return nil, domain.Internal("query records", err)
	}

	result := &domain.ValidationResult{
		Status:  domain.StatusValidated,
		Place:   place,
		Window:  window,
		Records: records,
	}
	if result.Matched() {
		metrics.RecordValidation(metrics.OutcomeMatch)
	} else {
		metrics.RecordValidation(metrics.OutcomeEmpty)
	}
	return result, nil
}
