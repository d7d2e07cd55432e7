package publisher

import (
	"context"

	"github.com/nandanugg/geotrack/module/core/domain"
)

type PlaceEventPublisher interface {
	PublishPlaceEvent(ctx context.Context, event *domain.PlaceEvent) error
}

type GeofencePublisher interface {
	PublishAlert(ctx context.Context, alert *domain.GeofenceAlert) error
}

type EventPublisher interface {
	PlaceEventPublisher
	GeofencePublisher
}

// Noop drops every event. It stands in when no broker is configured.
type Noop struct{}

var _ EventPublisher = Noop{}

func (Noop) PublishPlaceEvent(context.Context, *domain.PlaceEvent) error { return nil }
func (Noop) PublishAlert(context.Context, *domain.GeofenceAlert) error   { return nil }
