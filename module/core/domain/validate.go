package domain

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationPolicyVersion identifies the field rules below. It is reported to
// clients alongside validation failures so rule changes stay traceable.
const ValidationPolicyVersion = "v1"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
	})
	return validate
}

type placeRules struct {
	InternalID string  `json:"internalid" validate:"required,max=128,printascii"`
	Longitude  float64 `json:"longitude" validate:"finite,gte=-180,lte=180"`
	Latitude   float64 `json:"latitude" validate:"finite,gte=-90,lte=90"`
	Radius     int     `json:"radius" validate:"gte=0"`
}

type recordRules struct {
	DeviceID  string    `json:"imei" validate:"required,max=64,printascii"`
	Longitude float64   `json:"longitude" validate:"finite,gte=-180,lte=180"`
	Latitude  float64   `json:"latitude" validate:"finite,gte=-90,lte=90"`
	Time      time.Time `json:"time" validate:"required"`
	Angle     float64   `json:"angle" validate:"finite"`
	Speed     float64   `json:"speed" validate:"finite"`
	Altitude  float64   `json:"altitude" validate:"finite"`
}

// ValidatePlace applies the field policy shared by create and upsert.
func ValidatePlace(p *Place) error {
	if p == nil {
		return &ValidationError{Reason: "place is required"}
	}
	return check(&placeRules{
		InternalID: p.InternalID,
		Longitude:  p.Center.Lon(),
		Latitude:   p.Center.Lat(),
		Radius:     p.RadiusMeters,
	})
}

// ValidatePlaceID checks an identifier on its own, for lookups and deletes.
func ValidatePlaceID(id string) error {
	if err := validatorInstance().Var(id, "required,max=128,printascii"); err != nil {
		return &ValidationError{Field: "internalid", Reason: reason(firstFieldError(err))}
	}
	return nil
}

func ValidateRecord(r *Record) error {
	if r == nil {
		return &ValidationError{Reason: "record is required"}
	}
	return check(&recordRules{
		DeviceID:  r.DeviceID,
		Longitude: r.Location.Lon(),
		Latitude:  r.Location.Lat(),
		Time:      r.Time,
		Angle:     r.Angle,
		Speed:     r.Speed,
		Altitude:  r.Altitude,
	})
}

func check(rules any) error {
	err := validatorInstance().Struct(rules)
	if err == nil {
		return nil
	}
	fe := firstFieldError(err)
	if fe == nil {
		return &ValidationError{Reason: err.Error()}
	}
	return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
}

func firstFieldError(err error) validator.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0]
	}
	return nil
}

func reason(fe validator.FieldError) string {
	if fe == nil {
		return "invalid value"
	}
	switch fe.Tag() {
	case "required":
		return "required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "printascii":
		return "must contain printable ASCII only"
	case "finite":
		return "must be a finite number"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
