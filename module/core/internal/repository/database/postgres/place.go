package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/geo"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
)

var _ database.PlaceRepository = (*PlaceRepo)(nil)

const uniqueViolation = "23505"

// haversineKm is the SQL form of geo.Distance against the row's coordinates.
// Format arguments are the placeholders for longitude, latitude and earth
// radius; the radius is bound to geo.EarthRadiusKm.
// SQRT is clamped to 1 as in geo.Distance so rounding near antipodes cannot
// push ASIN out of its domain.
const haversineKm = `(%[3]s * 2 * ASIN(LEAST(1, SQRT(
	POWER(SIN(RADIANS(latitude - %[2]s) / 2), 2) +
	COS(RADIANS(%[2]s)) * COS(RADIANS(latitude)) * POWER(SIN(RADIANS(longitude - %[1]s) / 2), 2)))))`

// maxRadiusBandDeg is the latitude half-width, in degrees, that any stored
// circle can reach: a point within d km of a center differs from it by at
// most d/R radians of latitude. Arguments are the earth radius placeholder.
const maxRadiusBandDeg = `DEGREES((SELECT COALESCE(MAX(radius_meters), 0) FROM places) / 1000.0 / %[1]s)`

type PlaceRepo struct {
	db *sql.DB
}

func NewPlaceRepo(db *sql.DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

func (r *PlaceRepo) Create(ctx context.Context, place *domain.Place) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO places (internal_id, longitude, latitude, radius_meters) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		place.InternalID, place.Center.Lon(), place.Center.Lat(), place.RadiusMeters,
	).Scan(&place.CreatedAt, &place.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("place %q: %w", place.InternalID, domain.ErrDuplicateKey)
		}
		return err
	}
	place.CreatedAt, place.UpdatedAt = place.CreatedAt.UTC(), place.UpdatedAt.UTC()
	return nil
}

func (r *PlaceRepo) Upsert(ctx context.Context, place *domain.Place) (bool, error) {
	var created bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO places (internal_id, longitude, latitude, radius_meters) VALUES ($1, $2, $3, $4)
		ON CONFLICT (internal_id) DO UPDATE SET longitude = EXCLUDED.longitude, latitude = EXCLUDED.latitude, radius_meters = EXCLUDED.radius_meters, updated_at = now()
		RETURNING created_at, updated_at, (xmax = 0) AS created`,
		place.InternalID, place.Center.Lon(), place.Center.Lat(), place.RadiusMeters,
	).Scan(&place.CreatedAt, &place.UpdatedAt, &created)
	if err != nil {
		return false, err
	}
	place.CreatedAt, place.UpdatedAt = place.CreatedAt.UTC(), place.UpdatedAt.UTC()
	return created, nil
}

func (r *PlaceRepo) Get(ctx context.Context, internalID string) (*domain.Place, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT internal_id, longitude, latitude, radius_meters, created_at, updated_at FROM places WHERE internal_id = $1`,
		internalID,
	)

	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (r *PlaceRepo) Delete(ctx context.Context, internalID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM places WHERE internal_id = $1`, internalID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Containing prefilters on a latitude band as wide as the largest stored
// radius, so places_center_idx narrows the rows the haversine runs on.
// Longitude is not prefiltered; its span depends on each row's radius.
func (r *PlaceRepo) Containing(ctx context.Context, p orb.Point) ([]domain.Place, error) {
	band := fmt.Sprintf(maxRadiusBandDeg, "$3")
	query := `SELECT internal_id, longitude, latitude, radius_meters, created_at, updated_at FROM places WHERE ` +
		`latitude BETWEEN $2 - ` + band + ` AND $2 + ` + band + ` AND ` +
		fmt.Sprintf(haversineKm, "$1", "$2", "$3") + ` <= radius_meters / 1000.0 ORDER BY internal_id`

	rows, err := r.db.QueryContext(ctx, query, p.Lon(), p.Lat(), geo.EarthRadiusKm)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Place
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *place)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(s scanner) (*domain.Place, error) {
	var (
		p        domain.Place
		lon, lat float64
	)
	if err := s.Scan(&p.InternalID, &lon, &lat, &p.RadiusMeters, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Center = orb.Point{lon, lat}
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return &p, nil
}
