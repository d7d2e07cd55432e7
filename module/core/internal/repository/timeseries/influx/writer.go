// Package influx mirrors ingested records into InfluxDB for time-series
// dashboards. Postgres or memory remains the source of truth.
package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nandanugg/geotrack/module/core/domain"
)

const Measurement = "device_record"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type Writer struct {
	w pointWriter
}

func NewWriter(client influxdb2.Client, org, bucket string) *Writer {
	return &Writer{w: client.WriteAPIBlocking(org, bucket)}
}

func (w *Writer) WriteRecords(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*write.Point, len(records))
	for i := range records {
		points[i] = toPoint(&records[i])
	}
	if err := w.w.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write %d points: %w", len(points), err)
	}
	return nil
}

func toPoint(r *domain.Record) *write.Point {
	return influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("imei", r.DeviceID).
		AddField("longitude", r.Location.Lon()).
		AddField("latitude", r.Location.Lat()).
		AddField("angle", r.Angle).
		AddField("speed", r.Speed).
		AddField("altitude", r.Altitude).
		AddField("satellites", r.Satellites).
		AddField("record_id", r.ID).
		SetTime(r.Time)
}
