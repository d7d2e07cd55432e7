package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
	"github.com/nandanugg/geotrack/module/core/internal/spatial"
)

var _ database.RecordRepository = (*RecordRepo)(nil)

type RecordRepo struct {
	mu      sync.RWMutex
	records map[string]domain.Record
	index   spatial.Index
}

// NewRecordRepo stores records in memory and locates them through index.
// A nil index selects a GridIndex with the default cell size.
func NewRecordRepo(index spatial.Index) *RecordRepo {
	if index == nil {
		index = spatial.NewGridIndex(spatial.DefaultCellSizeKm)
	}
	return &RecordRepo{
		records: make(map[string]domain.Record),
		index:   index,
	}
}

func (r *RecordRepo) Append(ctx context.Context, records ...domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		r.records[rec.ID] = rec
		r.index.Insert(rec.ID, rec.Location)
	}
	return nil
}

func (r *RecordRepo) QueryWindowCircle(ctx context.Context, q database.RecordQuery) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Record
	for _, id := range r.index.Query(q.Circle) {
		rec, ok := r.records[id]
		if !ok {
			continue
		}
		if rec.Time.Before(q.Start) || !rec.Time.Before(q.End) {
			continue
		}
		if q.DeviceID != "" && rec.DeviceID != q.DeviceID {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Order == domain.SortDescending {
			a, b = b, a
		}
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		return a.ID < b.ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Len returns the number of stored records.
func (r *RecordRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
