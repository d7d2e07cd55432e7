package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
)

func TestPlaceRepo_CreateGet(t *testing.T) {
	repo := NewPlaceRepo()
	ctx := context.Background()

	p := &domain.Place{InternalID: "P1", Center: orb.Point{-3.7, 40.4}, RadiusMeters: 1000}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("expected timestamps to be set, got %v / %v", p.CreatedAt, p.UpdatedAt)
	}

	got, found, err := repo.Get(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected P1 to be found")
	}
	if got.Center != p.Center || got.RadiusMeters != 1000 {
		t.Errorf("got %+v, want %+v", got, p)
	}
}

func TestPlaceRepo_CreateDuplicate(t *testing.T) {
	repo := NewPlaceRepo()
	ctx := context.Background()

	_ = repo.Create(ctx, &domain.Place{InternalID: "P1", RadiusMeters: 1})
	err := repo.Create(ctx, &domain.Place{InternalID: "P1", RadiusMeters: 2})
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPlaceRepo_UpsertReplaces(t *testing.T) {
	repo := NewPlaceRepo()
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &domain.Place{InternalID: "P1", Center: orb.Point{-3.7, 40.4}, RadiusMeters: 1000})
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}

	created, err = repo.Upsert(ctx, &domain.Place{InternalID: "P1", Center: orb.Point{2.17, 41.38}, RadiusMeters: 50})
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}

	got, _, _ := repo.Get(ctx, "P1")
	if got.Center != (orb.Point{2.17, 41.38}) || got.RadiusMeters != 50 {
		t.Errorf("upsert did not replace: %+v", got)
	}
}

func TestPlaceRepo_GetMissing(t *testing.T) {
	repo := NewPlaceRepo()
	got, found, err := repo.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if found || got != nil {
		t.Errorf("expected not found, got %+v", got)
	}
}

func TestPlaceRepo_DeleteIdempotent(t *testing.T) {
	repo := NewPlaceRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.Place{InternalID: "P1"})

	deleted, err := repo.Delete(ctx, "P1")
	if err != nil || !deleted {
		t.Fatalf("first delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, "P1")
	if err != nil || deleted {
		t.Fatalf("second delete: deleted=%v err=%v", deleted, err)
	}
}

func TestPlaceRepo_Containing(t *testing.T) {
	repo := NewPlaceRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.Place{InternalID: "small", Center: orb.Point{-3.7, 40.4}, RadiusMeters: 1000})
	_ = repo.Create(ctx, &domain.Place{InternalID: "big", Center: orb.Point{-3.7, 40.4}, RadiusMeters: 20000})
	_ = repo.Create(ctx, &domain.Place{InternalID: "far", Center: orb.Point{106.8, -6.2}, RadiusMeters: 20000})

	got, err := repo.Containing(ctx, orb.Point{-3.9, 40.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].InternalID != "big" {
		t.Errorf("expected [big], got %+v", got)
	}
}

func TestPlaceRepo_CancelledContext(t *testing.T) {
	repo := NewPlaceRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := repo.Get(ctx, "P1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
