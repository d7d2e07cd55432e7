package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/geotrack/module/core/domain"
	"github.com/nandanugg/geotrack/module/core/service"
)

type validatorService interface {
	Validate(ctx context.Context, req service.ValidateRequest) (*domain.ValidationResult, error)
}

type validationResponse struct {
	Status      string           `json:"status"`
	Reason      string           `json:"reason,omitempty"`
	InternalID  string           `json:"internalid,omitempty"`
	WindowStart *time.Time       `json:"window_start,omitempty"`
	WindowEnd   *time.Time       `json:"window_end,omitempty"`
	Matched     bool             `json:"matched"`
	Records     []recordResponse `json:"records,omitempty"`
}

// Validate answers whether devices reported positions inside the place
// during the day starting at the time query parameter.
func (h *PlaceHandler) Validate(c *gin.Context) {
	raw := c.Query("time")
	if raw == "" {
		badRequest(c, "time parameter is required (RFC3339)")
		return
	}
	ref, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, "invalid time parameter, expected RFC3339")
		return
	}

	res, err := h.validatorSvc.Validate(c.Request.Context(), service.ValidateRequest{
		PlaceID:       c.Param("internalid"),
		DeviceID:      c.Query("imei"),
		ReferenceTime: ref,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toValidationResponse(res))
}

func toValidationResponse(res *domain.ValidationResult) validationResponse {
	resp := validationResponse{
		Status:  string(res.Status),
		Reason:  res.Reason,
		Matched: res.Matched(),
	}
	if res.Status != domain.StatusValidated {
		return resp
	}

	start, end := res.Window.Start, res.Window.End
	resp.WindowStart, resp.WindowEnd = &start, &end
	if res.Place != nil {
		resp.InternalID = res.Place.InternalID
	}
	resp.Records = make([]recordResponse, len(res.Records))
	for i := range res.Records {
		resp.Records[i] = toRecordResponse(&res.Records[i])
	}
	return resp
}
