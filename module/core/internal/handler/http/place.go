package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"github.com/nandanugg/geotrack/module/core/domain"
)

type placeService interface {
	Create(ctx context.Context, place *domain.Place) (*domain.Place, error)
	Upsert(ctx context.Context, place *domain.Place) (*domain.Place, bool, error)
	Get(ctx context.Context, internalID string) (*domain.Place, bool, error)
	Delete(ctx context.Context, internalID string) error
}

type placeRequest struct {
	Longitude *float64 `json:"longitude" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Radius    *int     `json:"radius" binding:"required"`
}

type placeResponse struct {
	InternalID string    `json:"internalid"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	Radius     int       `json:"radius"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PlaceHandler struct {
	placeSvc     placeService
	validatorSvc validatorService
}

func NewPlaceHandler(placeSvc placeService, validatorSvc validatorService) *PlaceHandler {
	return &PlaceHandler{placeSvc: placeSvc, validatorSvc: validatorSvc}
}

func (h *PlaceHandler) Register(r *gin.RouterGroup) {
	r.GET("/place/:internalid", h.GetPlace)
	r.POST("/place/:internalid", h.CreatePlace)
	r.PUT("/place/:internalid", h.UpsertPlace)
	r.DELETE("/place/:internalid", h.DeletePlace)
	r.GET("/place/:internalid/validate", h.Validate)
}

func (h *PlaceHandler) GetPlace(c *gin.Context) {
	place, found, err := h.placeSvc.Get(c.Request.Context(), c.Param("internalid"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
		return
	}

	c.JSON(http.StatusOK, toPlaceResponse(place))
}

func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	place, ok := bindPlace(c)
	if !ok {
		return
	}

	stored, err := h.placeSvc.Create(c.Request.Context(), place)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPlaceResponse(stored))
}

func (h *PlaceHandler) UpsertPlace(c *gin.Context) {
	place, ok := bindPlace(c)
	if !ok {
		return
	}

	stored, _, err := h.placeSvc.Upsert(c.Request.Context(), place)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPlaceResponse(stored))
}

func (h *PlaceHandler) DeletePlace(c *gin.Context) {
	if err := h.placeSvc.Delete(c.Request.Context(), c.Param("internalid")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func bindPlace(c *gin.Context) (*domain.Place, bool) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: longitude, latitude and radius are required")
		return nil, false
	}

	return &domain.Place{
		InternalID:   c.Param("internalid"),
		Center:       orb.Point{*req.Longitude, *req.Latitude},
		RadiusMeters: *req.Radius,
	}, true
}

func toPlaceResponse(p *domain.Place) placeResponse {
	return placeResponse{
		InternalID: p.InternalID,
		Longitude:  p.Longitude(),
		Latitude:   p.Latitude(),
		Radius:     p.RadiusMeters,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
