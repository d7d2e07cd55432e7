package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// Place is a named circular geofence. Center is [longitude, latitude].
type Place struct {
	InternalID   string
	Center       orb.Point
	RadiusMeters int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *Place) Longitude() float64 { return p.Center.Lon() }
func (p *Place) Latitude() float64  { return p.Center.Lat() }

type PlaceEventType string

const (
	PlaceCreated PlaceEventType = "place.created"
	PlaceUpdated PlaceEventType = "place.updated"
	PlaceDeleted PlaceEventType = "place.deleted"
)

// PlaceEvent describes a committed place mutation. Place is nil for
// PlaceDeleted.
type PlaceEvent struct {
	ID         string
	Type       PlaceEventType
	InternalID string
	Place      *Place
	OccurredAt time.Time
}

type GeofenceEventType string

const GeofenceInside GeofenceEventType = "geofence.inside"

// GeofenceAlert reports a record that landed inside a registered place.
type GeofenceAlert struct {
	DeviceID   string
	InternalID string
	Event      GeofenceEventType
	Location   orb.Point
	Time       time.Time
}
