package database

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/geo"
)

// PlaceRepository stores places keyed by InternalID. Callers validate
// entities before handing them over.
type PlaceRepository interface {
	// Create fails with domain.ErrDuplicateKey when the id is taken.
	Create(ctx context.Context, place *domain.Place) error
	// Upsert inserts or fully replaces the place and reports whether it was
	// newly created.
	Upsert(ctx context.Context, place *domain.Place) (bool, error)
	// Get reports found=false for a missing place; absence is not an error.
	Get(ctx context.Context, internalID string) (*domain.Place, bool, error)
	// Delete is a no-op for a missing place and reports whether a row went away.
	Delete(ctx context.Context, internalID string) (bool, error)
	// Containing returns the places whose circle contains p.
	Containing(ctx context.Context, p orb.Point) ([]domain.Place, error)
}

type RecordRepository interface {
	Append(ctx context.Context, records ...domain.Record) error
	QueryWindowCircle(ctx context.Context, q RecordQuery) ([]domain.Record, error)
}

// RecordQuery selects records with Start <= time < End inside Circle.
type RecordQuery struct {
	Start    time.Time
	End      time.Time
	Circle   geo.Circle
	DeviceID string // empty matches every device
	Order    domain.SortOrder
	Limit    int // 0 means no limit
}
