// Package memory is an in-process Entity Store. Records are located through
// a spatial.Index; places are few and scanned directly.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/geo"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
)

var _ database.PlaceRepository = (*PlaceRepo)(nil)

type PlaceRepo struct {
	mu     sync.RWMutex
	places map[string]domain.Place
	now    func() time.Time
}

func NewPlaceRepo() *PlaceRepo {
	return &PlaceRepo{
		places: make(map[string]domain.Place),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *PlaceRepo) Create(ctx context.Context, place *domain.Place) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.places[place.InternalID]; ok {
		return domain.ErrDuplicateKey
	}
	now := r.now()
	place.CreatedAt, place.UpdatedAt = now, now
	r.places[place.InternalID] = *place
	return nil
}

func (r *PlaceRepo) Upsert(ctx context.Context, place *domain.Place) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	existing, ok := r.places[place.InternalID]
	if ok {
		place.CreatedAt = existing.CreatedAt
	} else {
		place.CreatedAt = now
	}
	place.UpdatedAt = now
	r.places[place.InternalID] = *place
	return !ok, nil
}

func (r *PlaceRepo) Get(ctx context.Context, internalID string) (*domain.Place, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.places[internalID]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (r *PlaceRepo) Delete(ctx context.Context, internalID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.places[internalID]
	delete(r.places, internalID)
	return ok, nil
}

func (r *PlaceRepo) Containing(ctx context.Context, p orb.Point) ([]domain.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Place
	for _, place := range r.places {
		if geo.NewCircle(place.Center, place.RadiusMeters).Contains(p) {
			out = append(out, place)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out, nil
}
