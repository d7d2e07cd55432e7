package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/internal/metrics"
)

type recordService interface {
	Ingest(ctx context.Context, source string, records ...domain.Record) (int, error)
}

type recordRequest struct {
	IMEI       string    `json:"imei"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	Time       time.Time `json:"time"`
	Angle      float64   `json:"angle"`
	Speed      float64   `json:"speed"`
	Altitude   float64   `json:"altitude"`
	Satellites int       `json:"satellites"`
}

type recordResponse struct {
	ID         string    `json:"id"`
	IMEI       string    `json:"imei"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	Time       time.Time `json:"time"`
	Angle      float64   `json:"angle"`
	Speed      float64   `json:"speed"`
	Altitude   float64   `json:"altitude,omitempty"`
	Satellites int       `json:"satellites,omitempty"`
}

type RecordHandler struct {
	recordSvc recordService
}

func NewRecordHandler(recordSvc recordService) *RecordHandler {
	return &RecordHandler{recordSvc: recordSvc}
}

func (h *RecordHandler) Register(r *gin.RouterGroup) {
	r.POST("/records", h.Ingest)
}

// Ingest accepts a single record object or an array of them.
func (h *RecordHandler) Ingest(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "failed to read request body")
		return
	}

	var reqs []recordRequest
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		err = json.Unmarshal(body, &reqs)
	} else {
		var req recordRequest
		err = json.Unmarshal(body, &req)
		reqs = []recordRequest{req}
	}
	if err != nil {
		badRequest(c, "invalid request body")
		return
	}

	records := make([]domain.Record, len(reqs))
	for i, req := range reqs {
		records[i] = domain.Record{
			DeviceID:   req.IMEI,
			Location:   orb.Point{req.Longitude, req.Latitude},
			Time:       req.Time,
			Angle:      req.Angle,
			Speed:      req.Speed,
			Altitude:   req.Altitude,
			Satellites: req.Satellites,
		}
	}

	n, err := h.recordSvc.Ingest(c.Request.Context(), metrics.SourceHTTP, records...)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ingested": n})
}

func toRecordResponse(r *domain.Record) recordResponse {
	return recordResponse{
		ID:         r.ID,
		IMEI:       r.DeviceID,
		Longitude:  r.Location.Lon(),
		Latitude:   r.Location.Lat(),
		Time:       r.Time,
		Angle:      r.Angle,
		Speed:      r.Speed,
		Altitude:   r.Altitude,
		Satellites: r.Satellites,
	}
}
