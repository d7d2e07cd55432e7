package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/geo"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
	"github.com/nandanugg/geotrack/module/core/internal/spatial"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seedRecords(t *testing.T, repo *RecordRepo) {
	t.Helper()
	recs := []domain.Record{
		{ID: "r3", DeviceID: "dev1", Location: orb.Point{-3.7, 40.4}, Time: day.Add(15 * time.Hour)},
		{ID: "r1", DeviceID: "dev1", Location: orb.Point{-3.7, 40.4}, Time: day.Add(10 * time.Hour)},
		{ID: "r2", DeviceID: "dev2", Location: orb.Point{-3.701, 40.401}, Time: day.Add(12 * time.Hour)},
		{ID: "late", DeviceID: "dev1", Location: orb.Point{-3.7, 40.4}, Time: day.Add(24*time.Hour + time.Second)},
		{ID: "edge", DeviceID: "dev1", Location: orb.Point{-3.7, 40.4}, Time: day.Add(24 * time.Hour)},
		{ID: "start", DeviceID: "dev1", Location: orb.Point{-3.7, 40.4}, Time: day},
		{ID: "away", DeviceID: "dev1", Location: orb.Point{-3.9, 40.4}, Time: day.Add(11 * time.Hour)},
	}
	if err := repo.Append(context.Background(), recs...); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func ids(recs []domain.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestRecordRepo_QueryWindowCircle(t *testing.T) {
	repo := NewRecordRepo(nil)
	seedRecords(t, repo)

	tests := []struct {
		name string
		q    database.RecordQuery
		want string
	}{
		{
			name: "window and 1km circle ascending",
			q:    database.RecordQuery{Start: day, End: day.AddDate(0, 0, 1), Circle: geo.NewCircle(orb.Point{-3.7, 40.4}, 1000)},
			want: "[start r1 r2 r3]",
		},
		{
			name: "20km circle picks up the far record",
			q:    database.RecordQuery{Start: day, End: day.AddDate(0, 0, 1), Circle: geo.NewCircle(orb.Point{-3.7, 40.4}, 20000)},
			want: "[start r1 away r2 r3]",
		},
		{
			name: "descending with limit",
			q:    database.RecordQuery{Start: day, End: day.AddDate(0, 0, 1), Circle: geo.NewCircle(orb.Point{-3.7, 40.4}, 1000), Order: domain.SortDescending, Limit: 2},
			want: "[r3 r2]",
		},
		{
			name: "device filter",
			q:    database.RecordQuery{Start: day, End: day.AddDate(0, 0, 1), Circle: geo.NewCircle(orb.Point{-3.7, 40.4}, 1000), DeviceID: "dev2"},
			want: "[r2]",
		},
		{
			name: "next day window",
			q:    database.RecordQuery{Start: day.AddDate(0, 0, 1), End: day.AddDate(0, 0, 2), Circle: geo.NewCircle(orb.Point{-3.7, 40.4}, 1000)},
			want: "[edge late]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryWindowCircle(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s := fmt.Sprint(ids(got)); s != tt.want {
				t.Errorf("got %s, want %s", s, tt.want)
			}
		})
	}
}

func TestRecordRepo_BoundaryInclusive(t *testing.T) {
	repo := NewRecordRepo(spatial.NewScanIndex())
	center := orb.Point{-3.7, 40.4}
	edge := orb.Point{-3.7, 40.409}
	d := geo.Distance(center, edge)

	_ = repo.Append(context.Background(), domain.Record{ID: "edge", DeviceID: "d", Location: edge, Time: day.Add(time.Hour)})

	q := database.RecordQuery{Start: day, End: day.AddDate(0, 0, 1), Circle: geo.Circle{Center: center, RadiusKm: d}}
	if got, _ := repo.QueryWindowCircle(context.Background(), q); len(got) != 1 {
		t.Errorf("record on the boundary should be included, got %v", ids(got))
	}

	q.Circle.RadiusKm = d - 1e-9
	if got, _ := repo.QueryWindowCircle(context.Background(), q); len(got) != 0 {
		t.Errorf("record beyond the boundary should be excluded, got %v", ids(got))
	}
}

func TestRecordRepo_TieBreakByID(t *testing.T) {
	repo := NewRecordRepo(nil)
	ts := day.Add(time.Hour)
	_ = repo.Append(context.Background(),
		domain.Record{ID: "b", DeviceID: "d", Location: orb.Point{-3.7, 40.4}, Time: ts},
		domain.Record{ID: "a", DeviceID: "d", Location: orb.Point{-3.7, 40.4}, Time: ts},
	)

	got, _ := repo.QueryWindowCircle(context.Background(), database.RecordQuery{
		Start: day, End: day.AddDate(0, 0, 1), Circle: geo.NewCircle(orb.Point{-3.7, 40.4}, 10),
	})
	if s := fmt.Sprint(ids(got)); s != "[a b]" {
		t.Errorf("got %s, want [a b]", s)
	}
	if repo.Len() != 2 {
		t.Errorf("Len() = %d, want 2", repo.Len())
	}
}
