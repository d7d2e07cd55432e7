package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/geo"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
)

var _ database.RecordRepository = (*RecordRepo)(nil)

type RecordRepo struct {
	db *sql.DB
}

func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

func (r *RecordRepo) Append(ctx context.Context, records ...domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, device_id, longitude, latitude, recorded_at, angle, speed, altitude, satellites) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.DeviceID, rec.Location.Lon(), rec.Location.Lat(), rec.Time,
			rec.Angle, rec.Speed, rec.Altitude, rec.Satellites,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// QueryWindowCircle narrows candidates with the btree indexes on recorded_at
// and (latitude, longitude) using the circle's bounding boxes, then applies
// the exact haversine predicate.
func (r *RecordRepo) QueryWindowCircle(ctx context.Context, q database.RecordQuery) ([]domain.Record, error) {
	bounds := q.Circle.Bounds()
	if len(bounds) == 0 {
		return nil, nil
	}
	// Split boxes share their latitude band; a single box is bound twice so
	// the statement shape never changes.
	lonA, lonB := bounds[0], bounds[0]
	if len(bounds) > 1 {
		lonB = bounds[1]
	}

	query, args := buildRecordQuery(q, lonA, lonB)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Record
	for rows.Next() {
		var (
			rec      domain.Record
			lon, lat float64
		)
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &lon, &lat, &rec.Time,
			&rec.Angle, &rec.Speed, &rec.Altitude, &rec.Satellites); err != nil {
			return nil, err
		}
		rec.Location = orb.Point{lon, lat}
		rec.Time = rec.Time.UTC()
		results = append(results, rec)
	}
	return results, rows.Err()
}

func buildRecordQuery(q database.RecordQuery, lonA, lonB orb.Bound) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, device_id, longitude, latitude, recorded_at, angle, speed, altitude, satellites FROM records`)
	sb.WriteString(` WHERE recorded_at >= $1 AND recorded_at < $2`)
	sb.WriteString(` AND latitude BETWEEN $3 AND $4`)
	sb.WriteString(` AND (longitude BETWEEN $5 AND $6 OR longitude BETWEEN $7 AND $8)`)
	sb.WriteString(` AND ` + fmt.Sprintf(haversineKm, "$9", "$10", "$11") + ` <= $12`)

	args := []any{
		q.Start, q.End,
		lonA.Min.Lat(), lonA.Max.Lat(),
		lonA.Min.Lon(), lonA.Max.Lon(), lonB.Min.Lon(), lonB.Max.Lon(),
		q.Circle.Center.Lon(), q.Circle.Center.Lat(), geo.EarthRadiusKm,
		q.Circle.RadiusKm,
	}

	if q.DeviceID != "" {
		args = append(args, q.DeviceID)
		fmt.Fprintf(&sb, ` AND device_id = $%d`, len(args))
	}

	if q.Order == domain.SortDescending {
		sb.WriteString(` ORDER BY recorded_at DESC, id DESC`)
	} else {
		sb.WriteString(` ORDER BY recorded_at ASC, id ASC`)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return sb.String(), args
}
